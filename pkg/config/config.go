// Package config reads process configuration from environment variables,
// an optional user-scoped YAML file, and CLI flags, in that layered order.
// Environment variables are read once at startup and layered with the
// optional YAML file; CLI flags are layered on top by each binary's
// command package, which reads them from its cobra flag set.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither environment nor config file set a value.
const (
	DefaultPort     = 6688
	DefaultStartNow = false
	DefaultLogLevel = "INFO"
)

// EnvReader abstracts environment variable lookup so tests can inject a
// fake environment without mutating process-global state.
type EnvReader interface {
	Getenv(key string) string
}

// OSEnvReader reads from the real process environment.
type OSEnvReader struct{}

func (OSEnvReader) Getenv(key string) string { return os.Getenv(key) }

// Blender holds the optional Host-launch settings from the YAML config
// file (CLI use only; the bridge process itself never spawns the Host).
type Blender struct {
	ExecPath  string `yaml:"exec_path"`
	Version   string `yaml:"version"`
	RootDir   string `yaml:"root_dir"`
	PluginDir string `yaml:"plugin_dir"`
}

// MCPService holds the optional YAML config file's mcp_service section.
type MCPService struct {
	DefaultPort int    `yaml:"default_port"`
	LogLevel    string `yaml:"log_level"`
}

// FileConfig is the decoded shape of the optional YAML config file.
type FileConfig struct {
	Blender    Blender    `yaml:"blender"`
	MCPService MCPService `yaml:"mcp_service"`
}

// Snapshot is the process-wide configuration snapshot,
// merged from environment variables (highest precedence among the
// non-flag sources), the optional YAML file, and defaults.
type Snapshot struct {
	Port     int
	StartNow bool
	LogLevel string
	File     FileConfig
}

// Load builds a Snapshot by reading the recognized environment variables
// via env, then layering the optional YAML config file at path (or the
// default XDG path if path is empty) underneath them.
func Load(env EnvReader, path string) (Snapshot, error) {
	snap := Snapshot{
		Port:     DefaultPort,
		StartNow: DefaultStartNow,
		LogLevel: DefaultLogLevel,
	}

	if file, err := loadFile(env, path); err == nil {
		snap.File = file
		if file.MCPService.DefaultPort != 0 {
			snap.Port = file.MCPService.DefaultPort
		}
		if file.MCPService.LogLevel != "" {
			snap.LogLevel = file.MCPService.LogLevel
		}
	}

	if v := env.Getenv("BLD_REMOTE_MCP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port >= 1 && port <= 65535 {
			snap.Port = port
		}
	}
	if v := env.Getenv("BLD_REMOTE_MCP_START_NOW"); v != "" {
		if b, ok := parseBool(v); ok {
			snap.StartNow = b
		}
	}
	if v := env.Getenv("BLD_REMOTE_LOG_LEVEL"); v != "" {
		snap.LogLevel = strings.ToUpper(v)
	}

	return snap, nil
}

// parseBool accepts an extended truthy/falsy vocabulary:
// true/false/1/0/yes/no/on/off, case-insensitive.
func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/blender-remote/config.yaml,
// falling back to ~/.config/blender-remote/config.yaml.
func DefaultConfigPath(env EnvReader) string {
	if xdg := env.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "blender-remote", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "blender-remote", "config.yaml")
}

// loadFile reads and decodes the YAML config file at path, resolving the
// default XDG path via env when path is empty. A missing file is not an
// error: the zero-value FileConfig applies.
func loadFile(env EnvReader, path string) (FileConfig, error) {
	if path == "" {
		path = DefaultConfigPath(env)
	}
	if path == "" {
		return FileConfig{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, nil
	}

	var fc FileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return fc, nil
}
