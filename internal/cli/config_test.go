package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"scriptbench/internal/engine"
	"scriptbench/internal/store"
)

func TestConfig_SetGetShow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SCRIPTBENCH_CONFIG_DIR", dir)
	mem := newTestStore()

	data := mustData(t, mem, "", "config", "set", "server", "norns.local:5000").(map[string]any)
	if data["value"] != "norns.local:5000" {
		t.Fatalf("unexpected set output: %#v", data)
	}
	data = mustData(t, mem, "", "config", "get", "server").(map[string]any)
	if data["value"] != "norns.local:5000" {
		t.Fatalf("unexpected get output: %#v", data)
	}

	stdout, _, err := runCLI(t, mem, "", "--format", "text", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"server=norns.local:5000\n", "apiRoot=" + store.DefaultAPIRoot + "\n", "tui.preview=false\n"} {
		if !strings.Contains(string(stdout), want) {
			t.Fatalf("expected %q in:\n%s", want, stdout)
		}
	}

	if _, _, err := runCLI(t, mem, "", "config", "set", "logLevel", "loud"); err == nil {
		t.Fatalf("expected a bad level to be rejected")
	}
	if _, _, err := runCLI(t, mem, "", "config", "get", "nope"); err == nil {
		t.Fatalf("expected an unknown key to be rejected")
	}

	paths := mustData(t, mem, "", "config", "path").(map[string]any)
	if paths["config"] != filepath.Join(dir, "config.json") || paths["session"] != filepath.Join(dir, "session.sqlite") {
		t.Fatalf("unexpected paths: %#v", paths)
	}
}

func TestSetup_FlagsWinOverConfig(t *testing.T) {
	t.Setenv("SCRIPTBENCH_CONFIG_DIR", t.TempDir())
	t.Setenv("SCRIPTBENCH_SERVER", "")
	cfg := &store.Config{Server: "from-config:5000", TimeoutSeconds: 7, DropStaleListings: true}
	if err := store.SaveConfig(cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	app := &App{client: newTestStore()}
	mustDataApp(t, app, "info")
	if app.Server != "from-config:5000" || app.Timeout.Seconds() != 7 || !app.DropStale {
		t.Fatalf("config not applied: %+v", app)
	}

	app = &App{client: newTestStore()}
	mustDataApp(t, app, "--server", "flag:1", "--timeout", "2s", "--drop-stale-listings=false", "info")
	if app.Server != "flag:1" || app.Timeout.Seconds() != 2 || app.DropStale {
		t.Fatalf("flags did not win: %+v", app)
	}
}

func mustDataApp(t *testing.T, app *App, args ...string) {
	t.Helper()
	cmd := newRootCmd(app)
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("scriptbench %v: %v", args, err)
	}
}

func TestInfo_WithoutServerInfo(t *testing.T) {
	t.Setenv("SCRIPTBENCH_CONFIG_DIR", t.TempDir())
	t.Setenv("SCRIPTBENCH_SERVER", "")
	data := mustData(t, newTestStore(), "", "info").(map[string]any)
	if data["root"] != "/s" || data["server"] != store.DefaultServer {
		t.Fatalf("unexpected info: %#v", data)
	}
	if _, ok := data["version"]; ok {
		t.Fatalf("memory store has no version: %#v", data)
	}
}

func TestInfo_AgainstHTTPStore(t *testing.T) {
	t.Setenv("SCRIPTBENCH_CONFIG_DIR", t.TempDir())
	t.Setenv("SCRIPTBENCH_SERVER", "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != store.DefaultAPIRoot {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"api":"maiden","version":"1.2.0"}`))
	}))
	defer srv.Close()

	var out strings.Builder
	cmd := newRootCmd(&App{})
	cmd.SetOut(&out)
	cmd.SetErr(&strings.Builder{})
	cmd.SetArgs([]string{"--server", srv.URL, "--log-level", "debug", "info"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("info: %v", err)
	}
	var env struct {
		Data infoOutput `json:"data"`
	}
	if err := json.Unmarshal([]byte(out.String()), &env); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if env.Data.API != "maiden" || env.Data.Version != "1.2.0" || env.Data.Root != store.DefaultAPIRoot+"/scripts" {
		t.Fatalf("unexpected info: %+v", env.Data)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	snap := engine.Snapshot{
		Expanded: []string{"/s/lib"},
		Active:   "/s/lib/util.lua",
		Draft:    &engine.Draft{URL: "/s/lib/util.lua", Content: "return {1}"},
	}
	got := snapshotOf(sessionOf("host:1", snap))
	if got == nil || got.Active != snap.Active || got.Draft == nil || got.Draft.Content != "return {1}" || len(got.Expanded) != 1 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if snapshotOf(&store.Session{Server: "host:1"}) != nil {
		t.Fatalf("expected an empty session to restore nothing")
	}
}
