package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv("SCRIPTBENCH_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ServerOrDefault() != DefaultServer || cfg.APIRootOrDefault() != DefaultAPIRoot {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Fatalf("timeout=%v", cfg.Timeout())
	}
}

func TestSaveConfig_RoundTripsAndIsPrivate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SCRIPTBENCH_CONFIG_DIR", dir)

	cfg := &Config{}
	for _, kv := range [][2]string{
		{"server", "norns.local"},
		{"timeoutSeconds", "5"},
		{"logLevel", "DEBUG"},
		{"dropStaleListings", "true"},
		{"tui.theme", "dark"},
		{"tui.preview", "1"},
	} {
		if err := cfg.Set(kv[0], kv[1]); err != nil {
			t.Fatalf("Set(%s): %v", kv[0], err)
		}
	}
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Server != "norns.local" || got.Timeout() != 5*time.Second || got.LogLevel != "debug" || !got.DropStaleListings {
		t.Fatalf("unexpected config: %+v", got)
	}
	if got.TUI == nil || got.TUI.Theme != "dark" || !got.TUI.Preview {
		t.Fatalf("unexpected tui config: %+v", got.TUI)
	}
}

func TestConfigSet_RejectsBadValues(t *testing.T) {
	cfg := &Config{}
	for _, kv := range [][2]string{
		{"timeoutSeconds", "soon"},
		{"logLevel", "loud"},
		{"tui.theme", "purple"},
		{"dropStaleListings", "maybe"},
		{"nope", "x"},
	} {
		if err := cfg.Set(kv[0], kv[1]); err == nil {
			t.Fatalf("Set(%s, %s): expected error", kv[0], kv[1])
		}
	}
	if _, err := cfg.Get("nope"); err == nil || !strings.Contains(err.Error(), "known:") {
		t.Fatalf("expected unknown key error listing known keys, got %v", err)
	}
}

func TestConfigValues_ListsEveryKey(t *testing.T) {
	vals := (&Config{}).ConfigValues()
	if len(vals) != len(ConfigKeys) {
		t.Fatalf("got %d values", len(vals))
	}
	if vals[0][0] != "server" || vals[0][1] != DefaultServer {
		t.Fatalf("unexpected first value: %v", vals[0])
	}
}

func TestSaveConfig_ConcurrentWritersLeaveValidFile(t *testing.T) {
	t.Setenv("SCRIPTBENCH_CONFIG_DIR", t.TempDir())

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := SaveConfig(&Config{TimeoutSeconds: i + 1}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("SaveConfig: %v", err)
	}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config corrupted: %v", err)
	}
	if cfg.TimeoutSeconds < 1 || cfg.TimeoutSeconds > 32 {
		t.Fatalf("unexpected timeout %d", cfg.TimeoutSeconds)
	}
}
