// Package appconfig manages application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/treykane/ec2-connect/internal/util"
	"gopkg.in/yaml.v3"
)

const (
	LogLevelInfo  = "info"
	LogLevelDebug = "debug"
)

// Config holds application-level configuration.
type Config struct {
	// Region is the AWS region used when --region is not given. Empty means
	// the SDK default chain (AWS_REGION, shared config) decides.
	Region string `yaml:"region"`
	// Profile selects a shared config profile. Empty means the default profile.
	Profile      string `yaml:"profile"`
	SSHBinary    string `yaml:"ssh_binary"`
	LogLevel     string `yaml:"log_level"`
	RedactErrors bool   `yaml:"redact_errors"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		SSHBinary:    util.DefaultSSHBinary,
		LogLevel:     LogLevelInfo,
		RedactErrors: true,
	}
}

// ConfigDir returns the application config directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/ec2-connect.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ec2-connect"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return filepath.Join(home, ".config", "ec2-connect"), nil
}

// FilePath returns the full path to config.yaml.
func FilePath() (string, error) {
	d, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// Load reads config.yaml from the config directory. A missing file yields the
// defaults; nothing is written to disk.
func Load() (Config, error) {
	path, err := FilePath()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path, falling back to defaults for a missing
// file or missing keys.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return normalize(cfg), nil
}

func normalize(cfg Config) Config {
	cfg.Region = strings.TrimSpace(cfg.Region)
	cfg.Profile = strings.TrimSpace(cfg.Profile)
	cfg.SSHBinary = util.DefaultString(strings.TrimSpace(cfg.SSHBinary), util.DefaultSSHBinary)
	switch strings.ToLower(strings.TrimSpace(cfg.LogLevel)) {
	case LogLevelDebug:
		cfg.LogLevel = LogLevelDebug
	default:
		cfg.LogLevel = LogLevelInfo
	}
	return cfg
}
