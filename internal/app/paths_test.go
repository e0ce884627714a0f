package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	p := NewPaths("/home/r")
	assert.Equal(t, filepath.Join("/home/r", ".survey"), p.Root)
	assert.Equal(t, filepath.Join("/home/r", ".survey", "session.db"), p.DB)
	assert.Equal(t, filepath.Join("/home/r", ".survey", "status.json"), p.Status)
	assert.Equal(t, filepath.Join("/home/r", ".survey", "log"), p.LogDir)
	assert.Equal(t, filepath.Join("/home/r", ".survey", "log", "survey.log"), p.Log)
	assert.Equal(t, filepath.Join("/home/r", ".survey", "log", "outbox.jsonl"), p.Outbox)
	assert.Equal(t, filepath.Join("/home/r", ".survey", "collect.db"), p.CollectDB)
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	p := NewPaths(dir)

	// First call creates directories.
	require.NoError(t, p.EnsureDirs())
	for _, d := range []string{p.Root, p.LogDir} {
		info, err := os.Stat(d)
		require.NoError(t, err, "dir %s should exist", d)
		assert.True(t, info.IsDir())
	}

	// Second call is idempotent.
	require.NoError(t, p.EnsureDirs())
}

func TestCleanEphemeral(t *testing.T) {
	dir := t.TempDir()
	p := NewPaths(dir)
	require.NoError(t, p.EnsureDirs())
	require.NoError(t, os.WriteFile(p.Status, []byte("{}"), 0644))

	p.CleanEphemeral()
	_, err := os.Stat(p.Status)
	assert.True(t, os.IsNotExist(err))

	// Missing file is fine.
	p.CleanEphemeral()
}
