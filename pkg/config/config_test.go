package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnv map[string]string

func (f fakeEnv) Getenv(key string) string { return f[key] }

func TestLoadDefaults(t *testing.T) {
	snap, err := Load(fakeEnv{}, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, snap.Port)
	assert.Equal(t, DefaultStartNow, snap.StartNow)
	assert.Equal(t, DefaultLogLevel, snap.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	env := fakeEnv{
		"BLD_REMOTE_MCP_PORT":      "7777",
		"BLD_REMOTE_MCP_START_NOW": "yes",
		"BLD_REMOTE_LOG_LEVEL":     "debug",
	}
	snap, err := Load(env, "")
	require.NoError(t, err)
	assert.Equal(t, 7777, snap.Port)
	assert.True(t, snap.StartNow)
	assert.Equal(t, "DEBUG", snap.LogLevel)
}

func TestLoadIgnoresOutOfRangePort(t *testing.T) {
	snap, err := Load(fakeEnv{"BLD_REMOTE_MCP_PORT": "99999"}, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, snap.Port)
}

func TestLoadIgnoresUnparseableBool(t *testing.T) {
	snap, err := Load(fakeEnv{"BLD_REMOTE_MCP_START_NOW": "maybe"}, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultStartNow, snap.StartNow)
}

func TestParseBoolVocabulary(t *testing.T) {
	for _, truthy := range []string{"true", "1", "yes", "on", "TRUE", "On"} {
		b, ok := parseBool(truthy)
		assert.True(t, ok, truthy)
		assert.True(t, b, truthy)
	}
	for _, falsy := range []string{"false", "0", "no", "off"} {
		b, ok := parseBool(falsy)
		assert.True(t, ok, falsy)
		assert.False(t, b, falsy)
	}
	_, ok := parseBool("banana")
	assert.False(t, ok)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte("blender:\n  exec_path: /opt/blender/blender\nmcp_service:\n  default_port: 7001\n  log_level: WARNING\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o644))

	snap, err := Load(fakeEnv{}, path)
	require.NoError(t, err)
	assert.Equal(t, 7001, snap.Port)
	assert.Equal(t, "WARNING", snap.LogLevel)
	assert.Equal(t, "/opt/blender/blender", snap.File.Blender.ExecPath)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte("mcp_service:\n  default_port: 7001\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o644))

	snap, err := Load(fakeEnv{"BLD_REMOTE_MCP_PORT": "9000"}, path)
	require.NoError(t, err)
	assert.Equal(t, 9000, snap.Port)
}

func TestDefaultConfigPathUsesXDG(t *testing.T) {
	env := fakeEnv{"XDG_CONFIG_HOME": "/tmp/xdgtest"}
	assert.Equal(t, "/tmp/xdgtest/blender-remote/config.yaml", DefaultConfigPath(env))
}

func TestMissingFileIsNotAnError(t *testing.T) {
	snap, err := Load(fakeEnv{}, "/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, snap.Port)
}
