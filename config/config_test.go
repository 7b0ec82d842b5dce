package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "server:\n  port: \":9000\"\nmatch:\n  max_inc_ms: 30000\nrecord:\n  backend: redis\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	require.NoError(t, Load(path))
	assert.Equal(t, ":9000", C.Server.Port)
	assert.Equal(t, int64(30000), C.Match.MaxIncMs)
	assert.Equal(t, int64(60000), C.Match.MinBaseMs)
	assert.Equal(t, "redis", C.Record.Backend)
	assert.Equal(t, 256, C.Record.QueueSize)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	require.NoError(t, Load(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Equal(t, ":8080", C.Server.Port)
	assert.Equal(t, "memory", C.Record.Backend)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BLITZ_SERVER_PORT", ":7777")
	require.NoError(t, Load(""))
	assert.Equal(t, ":7777", C.Server.Port)
}

func TestLoad_RejectsInvertedRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("match:\n  min_base_ms: 999999999\n"), 0o644))
	assert.Error(t, Load(path))
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("record:\n  backend: mongo\n"), 0o644))
	assert.Error(t, Load(path))
}

func TestLoad_ZeroMaxLeavesRangeOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "match:\n  min_base_ms: 120000\n  max_base_ms: 0\n  min_inc_ms: 1000\n  max_inc_ms: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	require.NoError(t, Load(path))
	assert.Equal(t, int64(120000), C.Match.MinBaseMs)
	assert.Equal(t, int64(0), C.Match.MaxBaseMs)
	assert.Equal(t, int64(0), C.Match.MaxIncMs)
}

func TestLoad_ShippedFileNeedsNoBackingStore(t *testing.T) {
	require.NoError(t, Load("config.yaml"))
	assert.Equal(t, "memory", C.Record.Backend)
	assert.Equal(t, int64(60000), C.Match.MinBaseMs)
}
