package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs(t *testing.T) {
	g := NewSequentialIDs("")
	assert.Equal(t, "entry-1", g.Generate())
	assert.Equal(t, "entry-2", g.Generate())

	g.Reset()
	assert.Equal(t, "entry-1", g.Generate())
}

func TestSequentialIDs_Prefix(t *testing.T) {
	g := NewSequentialIDs("rec")
	assert.Equal(t, "rec-1", g.Generate())
}
