package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
storage: memory
preset: box
draft: "left over"
flow:
  - action: set_body
    args:
      text: "hello"
    expect:
      case: ok
      result: { mode: neutral }
assertions:
  - type: trace_contains
    action: set_body
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, StorageMemory, scenario.Storage)
	assert.Equal(t, "box", scenario.Preset)
	assert.Equal(t, "left over", scenario.Draft)
	require.Len(t, scenario.Flow, 1)
	assert.Equal(t, ActionSetBody, scenario.Flow[0].Action)
	assert.Equal(t, "hello", scenario.Flow[0].Args["text"])
	require.NotNil(t, scenario.Flow[0].Expect)
	assert.Equal(t, CaseOK, scenario.Flow[0].Expect.Case)
	assert.Len(t, scenario.Assertions, 1)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "misspelled key"
flow:
  - action: begin
assertion:
  - type: trace_count
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nflow: [{action: begin}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nflow: [{action: begin}]\n",
			wantErr: "description is required",
		},
		{
			name:    "empty flow",
			yaml:    "name: n\ndescription: d\nflow: []\n",
			wantErr: "flow list is required",
		},
		{
			name:    "unknown storage",
			yaml:    "name: n\ndescription: d\nstorage: cloud\nflow: [{action: begin}]\n",
			wantErr: `unknown storage "cloud"`,
		},
		{
			name:    "unknown action",
			yaml:    "name: n\ndescription: d\nflow: [{action: dance}]\n",
			wantErr: `unknown action "dance"`,
		},
		{
			name:    "missing arg",
			yaml:    "name: n\ndescription: d\nflow: [{action: set_body}]\n",
			wantErr: `set_body requires arg "text"`,
		},
		{
			name:    "expect without case",
			yaml:    "name: n\ndescription: d\nflow: [{action: begin, expect: {result: {draft: empty}}}]\n",
			wantErr: "case is required",
		},
		{
			name:    "unknown case",
			yaml:    "name: n\ndescription: d\nflow: [{action: begin, expect: {case: maybe}}]\n",
			wantErr: `unknown case "maybe"`,
		},
		{
			name:    "assertion without type",
			yaml:    "name: n\ndescription: d\nflow: [{action: begin}]\nassertions: [{action: begin}]\n",
			wantErr: "type is required",
		},
		{
			name:    "trace_order without actions",
			yaml:    "name: n\ndescription: d\nflow: [{action: begin}]\nassertions: [{type: trace_order}]\n",
			wantErr: "actions list is required",
		},
		{
			name:    "negative count",
			yaml:    "name: n\ndescription: d\nflow: [{action: begin}]\nassertions: [{type: trace_count, action: begin, count: -1}]\n",
			wantErr: "count must be non-negative",
		},
		{
			name:    "final_state entries without id",
			yaml:    "name: n\ndescription: d\nflow: [{action: begin}]\nassertions: [{type: final_state, table: entries, expect: {tone: raw}}]\n",
			wantErr: "where.id is required",
		},
		{
			name:    "final_state unknown table",
			yaml:    "name: n\ndescription: d\nflow: [{action: begin}]\nassertions: [{type: final_state, table: users, expect: {a: 1}}]\n",
			wantErr: `unknown table "users"`,
		},
		{
			name:    "final_state without expect",
			yaml:    "name: n\ndescription: d\nflow: [{action: begin}]\nassertions: [{type: final_state, table: draft}]\n",
			wantErr: "expect is required",
		},
		{
			name:    "unknown assertion type",
			yaml:    "name: n\ndescription: d\nflow: [{action: begin}]\nassertions: [{type: vibes}]\n",
			wantErr: `unknown assertion type "vibes"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)
		assert.Equal(t, filepath.Base(path), scenario.Name+".yaml", "file name should match scenario name")
	}
}
