package dashboard

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesIndexHTML(t *testing.T) {
	dir := t.TempDir()
	entries := []Entry{
		{RunID: "run-aaaaaaaaaaaa", Title: "demo", Lane: "scripted", Status: "passed", CreatedAt: time.Now(), Dir: dir},
	}
	path, err := Render(dir, entries)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "index.html"), path)
	assert.FileExists(t, path)
}

func TestRenderThenExtractRoundTrips(t *testing.T) {
	dir := t.TempDir()
	entries := []Entry{
		{RunID: "run-bbbbbbbbbbbb", Title: "demo two", Lane: "visual", Status: "failed", CreatedAt: time.Now(), Dir: dir},
	}
	path, err := Render(dir, entries)
	require.NoError(t, err)

	got, err := ExtractEntries(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "run-bbbbbbbbbbbb", got[0].RunID)
	assert.Equal(t, "failed", got[0].Status)
}

func TestExtractEntriesOnEmptyIndexReturnsNoEntries(t *testing.T) {
	dir := t.TempDir()
	path, err := Render(dir, nil)
	require.NoError(t, err)

	got, err := ExtractEntries(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}
