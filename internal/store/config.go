package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultServer  = "localhost:5000"
	DefaultAPIRoot = "/api/v1"
)

type Config struct {
	// Server is the script store, as host:port or a full base url.
	Server string `json:"server,omitempty"`
	// APIRoot is the path the store mounts its API at (default /api/v1).
	APIRoot string `json:"apiRoot,omitempty"`

	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`

	// LogLevel is one of debug|info|warn|error.
	LogLevel string `json:"logLevel,omitempty"`
	// LogFile, when set, receives JSON logs in addition to stderr.
	LogFile string `json:"logFile,omitempty"`

	// DropStaleListings ignores a folder listing when a newer one was requested.
	DropStaleListings bool `json:"dropStaleListings,omitempty"`

	TUI *TUIConfig `json:"tui,omitempty"`
}

type TUIConfig struct {
	// Theme is light|dark|auto.
	Theme string `json:"theme,omitempty"`
	// Preview renders markdown scripts instead of showing the editor.
	Preview bool `json:"preview,omitempty"`
}

// ConfigKeys are the keys accepted by Get and Set.
var ConfigKeys = []string{
	"server",
	"apiRoot",
	"timeoutSeconds",
	"logLevel",
	"logFile",
	"dropStaleListings",
	"tui.theme",
	"tui.preview",
}

func (c *Config) ServerOrDefault() string {
	if s := strings.TrimSpace(c.Server); s != "" {
		return s
	}
	return DefaultServer
}

func (c *Config) APIRootOrDefault() string {
	if s := strings.TrimSpace(c.APIRoot); s != "" {
		return s
	}
	return DefaultAPIRoot
}

func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) Get(key string) (string, error) {
	switch key {
	case "server":
		return c.ServerOrDefault(), nil
	case "apiRoot":
		return c.APIRootOrDefault(), nil
	case "timeoutSeconds":
		return strconv.Itoa(int(c.Timeout() / time.Second)), nil
	case "logLevel":
		return c.LogLevel, nil
	case "logFile":
		return c.LogFile, nil
	case "dropStaleListings":
		return strconv.FormatBool(c.DropStaleListings), nil
	case "tui.theme":
		if c.TUI == nil {
			return "", nil
		}
		return c.TUI.Theme, nil
	case "tui.preview":
		return strconv.FormatBool(c.TUI != nil && c.TUI.Preview), nil
	}
	return "", unknownKey(key)
}

func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "server":
		c.Server = value
	case "apiRoot":
		c.APIRoot = value
	case "timeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("timeoutSeconds: expected a non-negative integer, got %q", value)
		}
		c.TimeoutSeconds = n
	case "logLevel":
		switch strings.ToLower(value) {
		case "", "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("logLevel: expected debug|info|warn|error, got %q", value)
		}
	case "logFile":
		c.LogFile = value
	case "dropStaleListings":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("dropStaleListings: %w", err)
		}
		c.DropStaleListings = b
	case "tui.theme":
		switch strings.ToLower(value) {
		case "", "auto", "light", "dark":
		default:
			return fmt.Errorf("tui.theme: expected light|dark|auto, got %q", value)
		}
		c.tui().Theme = strings.ToLower(value)
	case "tui.preview":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("tui.preview: %w", err)
		}
		c.tui().Preview = b
	default:
		return unknownKey(key)
	}
	return nil
}

func (c *Config) tui() *TUIConfig {
	if c.TUI == nil {
		c.TUI = &TUIConfig{}
	}
	return c.TUI
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(ConfigKeys, ", "))
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.scriptbench).
	if v := strings.TrimSpace(os.Getenv("SCRIPTBENCH_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".scriptbench"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	// Unique temp name + rename: the CLI and the TUI may write at the same time.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// ConfigValues lists every key with its effective value, in ConfigKeys order.
func (c *Config) ConfigValues() [][2]string {
	out := make([][2]string, 0, len(ConfigKeys))
	for _, k := range ConfigKeys {
		v, _ := c.Get(k)
		out = append(out, [2]string{k, v})
	}
	return out
}
