package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Trigger contains the label gate evaluated against pull request events.
type Trigger struct {
	Label   string   `toml:"label"`
	Actions []string `toml:"actions"`
}

// Credential names one secret handed to the publish command. Value falls back
// to the environment variable named by Env.
type Credential struct {
	Env   string `toml:"env"`
	Value string `toml:"value"`
}

// Publish contains configuration for the container publish procedure.
type Publish struct {
	Prefix         string       `toml:"prefix"`
	Command        []string     `toml:"command"`
	WorkDir        string       `toml:"work_dir"`
	TimeoutSeconds int          `toml:"timeout_seconds"`
	Credentials    []Credential `toml:"credentials"`
}

// Dispatch contains configuration for the repository_dispatch call.
type Dispatch struct {
	APIBaseURL     string `toml:"api_base_url"`
	Repository     string `toml:"repository"`
	EventType      string `toml:"event_type"`
	Token          string `toml:"token"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Telemetry controls OpenTelemetry trace export.
type Telemetry struct {
	Traces      bool   `toml:"traces"`
	ServiceName string `toml:"service_name"`
}

// Config encapsulates all configuration values for loadgate.
//
// Configuration sections by subsystem:
//   - Trigger: label gate and re-check actions
//   - Publish: external publish command, naming prefix, credentials
//   - Dispatch: GitHub repository_dispatch target and token
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
//   - Telemetry: stdout trace export
type Config struct {
	Trigger       Trigger       `toml:"trigger"`
	Publish       Publish       `toml:"publish"`
	Dispatch      Dispatch      `toml:"dispatch"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Telemetry     Telemetry     `toml:"telemetry"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error; defaults are used and exists reports false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// RepositoryParts splits dispatch.repository into owner and name.
func (d Dispatch) RepositoryParts() (string, string, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(d.Repository), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("dispatch.repository must be in owner/name form, got %q", d.Repository)
	}
	return owner, name, nil
}

// Resolve returns the credential value, consulting the environment when the
// config leaves it empty.
func (c Credential) Resolve() string {
	if value := strings.TrimSpace(c.Value); value != "" {
		return value
	}
	if c.Env == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.Env))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
