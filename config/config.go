// Package config loads bridge settings from a TOML file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"inputbridge/util"
)

type Config struct {
	Server ServerConfig `toml:"server"`
	Host   HostConfig   `toml:"host"`
}

type ServerConfig struct {
	// Address is where clients reach the bridge.
	Address string `toml:"address"`
	Port    int    `toml:"port"`
	// Key is the client's private key path; empty means auto-detect.
	Key               string `toml:"key"`
	QueueSize         int    `toml:"queue_size"`
	ClipboardFallback bool   `toml:"clipboard_fallback"`
}

type HostConfig struct {
	// Kind is "adb" for a device or "file" for a saved hierarchy dump.
	Kind             string `toml:"kind"`
	Serial           string `toml:"serial"`
	ADBPath          string `toml:"adb_path"`
	InputMethod      string `toml:"input_method"`
	ServiceComponent string `toml:"service_component"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	File             string `toml:"file"`
	SettingsURL      string `toml:"settings_url"`
}

func (h HostConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:   "localhost",
			Port:      util.DefaultPort,
			QueueSize: 16,
		},
		Host: HostConfig{
			Kind:           "adb",
			InputMethod:    "shell",
			TimeoutSeconds: 10,
		},
	}
}

// Dir is the per-user directory holding config, keys and certificates.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", util.ProgramName), nil
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load decodes path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("decode TOML: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(util.EnvVarServer); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv(util.EnvVarPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv(util.EnvVarKey); v != "" {
		c.Server.Key = v
	}
	if v := os.Getenv(util.EnvVarSerial); v != "" {
		c.Host.Serial = v
	}
}

// Validate rejects settings the bridge cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Server.Port)
	}
	switch c.Host.Kind {
	case "adb":
	case "file":
		if c.Host.File == "" {
			return fmt.Errorf("host kind \"file\" requires host.file")
		}
	default:
		return fmt.Errorf("unknown host kind %q", c.Host.Kind)
	}
	switch c.Host.InputMethod {
	case "shell", "adbkeyboard":
	default:
		return fmt.Errorf("unknown input method %q", c.Host.InputMethod)
	}
	return nil
}
