package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: quick_save
description: save one line
flow:
  - action: begin
  - action: set_body
    args: { text: "one line" }
  - action: save
    expect:
      case: ok
`

const failingScenario = `name: wrong_case
description: expects a save of nothing to succeed
flow:
  - action: begin
  - action: save
    expect:
      case: ok
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScenario_Testdata(t *testing.T) {
	e := newCLIEnv(t)

	out := runJSON[ScenariosOutput](e, "scenario", filepath.Join("..", "harness", "testdata", "scenarios"))
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 3, out.Passed)
	assert.Zero(t, out.Failed)

	filtered := runJSON[ScenariosOutput](e, "scenario", filepath.Join("..", "harness", "testdata", "scenarios"), "--filter", "recovery_*")
	assert.Equal(t, 2, filtered.Total)
}

func TestScenario_UpdateThenCompare(t *testing.T) {
	e := newCLIEnv(t)
	file := filepath.Join(e.dir, "scenarios", "quick_save.yaml")
	writeFile(t, file, passingScenario)

	runJSON[ScenariosOutput](e, "scenario", file, "--update")
	golden := filepath.Join(e.dir, "golden", "quick_save.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name": "quick_save"`)

	out := runJSON[ScenariosOutput](e, "scenario", file)
	assert.Equal(t, 1, out.Passed)

	writeFile(t, golden, "{}\n")
	_, _, err = e.run("", "scenario", file)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestScenario_FailureIsReported(t *testing.T) {
	e := newCLIEnv(t)
	file := filepath.Join(e.dir, "wrong_case.yaml")
	writeFile(t, file, failingScenario)

	stdout, _, err := e.run("", "scenario", file)
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.True(t, exitErr.Reported)
	assert.Equal(t, ExitFailure, exitErr.Code)
	assert.Equal(t, ErrCodeScenario, exitErr.ErrCode)
	assert.Contains(t, stdout, "✗ wrong_case")
	assert.Contains(t, stdout, "0 passed, 1 failed, 1 total")
}

func TestScenario_MissingPath(t *testing.T) {
	e := newCLIEnv(t)

	_, _, err := e.run("", "scenario", filepath.Join(e.dir, "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, GetErrCode(err))
}
