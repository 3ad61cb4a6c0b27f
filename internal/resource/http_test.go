package resource

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"scriptbench/internal/model"
)

// fakeStore mimics the script store's HTTP API closely enough for the client.
type fakeStore struct {
	mu       sync.Mutex
	requests []*http.Request
	files    map[string]string
	renamed  map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		files: map[string]string{
			"/api/v1/scripts/main.lua": "print(1)",
		},
		renamed: map[string]string{},
	}
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1":
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"api":"maiden","version":"0.0.1"}`)
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/scripts":
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"path":"","entries":[
			{"name":"lib","url":"/api/v1/scripts/lib","children":[]},
			{"name":"main.lua","url":"/api/v1/scripts/main.lua"}
		]}`)
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/scripts/main.lua":
		io.WriteString(w, f.files[r.URL.Path])
	case r.Method == http.MethodGet:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"no such script"}`)
	case r.Method == http.MethodPut:
		file, _, err := r.FormFile("value")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(file)
		f.mu.Lock()
		f.files[r.URL.Path] = string(b)
		f.mu.Unlock()
	case r.Method == http.MethodPatch:
		name := r.PostFormValue("name")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"url": "/api/v1/scripts/" + name})
	case r.Method == http.MethodPost:
		if r.PostFormValue("kind") != "folder" {
			http.Error(w, "kind", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(model.Entity{URL: r.URL.Path + "/" + r.PostFormValue("name"), Kind: model.KindFolder})
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T) (*HTTPClient, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)
	c, err := NewHTTPClient(srv.URL)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return c, store
}

func TestListTopLevel_DecodesFoldersByChildren(t *testing.T) {
	c, _ := newTestClient(t)
	got, err := c.ListTopLevel(context.Background())
	if err != nil {
		t.Fatalf("ListTopLevel: %v", err)
	}
	want := []model.Entry{
		{URL: "/api/v1/scripts/lib", Name: "lib", Kind: model.KindFolder},
		{URL: "/api/v1/scripts/main.lua", Name: "main.lua", Kind: model.KindScript},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReadText(t *testing.T) {
	c, _ := newTestClient(t)
	got, err := c.ReadText(context.Background(), "/api/v1/scripts/main.lua")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != "print(1)" {
		t.Fatalf("got %q", got)
	}
}

func TestReadText_NotFound(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.ReadText(context.Background(), "/api/v1/scripts/missing.lua")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Message != "no such script" || se.Method != http.MethodGet {
		t.Fatalf("unexpected status error: %#v", err)
	}
}

func TestWriteText_SendsMultipartValue(t *testing.T) {
	c, store := newTestClient(t)
	ent, err := c.WriteText(context.Background(), "/api/v1/scripts/new%20one.lua", "print(2)")
	if err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if ent.URL != "/api/v1/scripts/new%20one.lua" || ent.Value != "print(2)" || ent.Name != "new one.lua" {
		t.Fatalf("unexpected entity: %+v", ent)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.files["/api/v1/scripts/new one.lua"] != "print(2)" {
		t.Fatalf("store did not receive the text: %+v", store.files)
	}
}

func TestRenameResource_ReturnsNewURL(t *testing.T) {
	c, store := newTestClient(t)
	got, err := c.RenameResource(context.Background(), "/api/v1/scripts/main.lua", "init.lua")
	if err != nil {
		t.Fatalf("RenameResource: %v", err)
	}
	if got != "/api/v1/scripts/init.lua" {
		t.Fatalf("got %q", got)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	last := store.requests[len(store.requests)-1]
	if last.Method != http.MethodPatch || last.Header.Get("X-Request-Id") == "" {
		t.Fatalf("unexpected request: %s %v", last.Method, last.Header)
	}
	if !strings.HasPrefix(last.Header.Get("User-Agent"), "scriptbench") {
		t.Fatalf("unexpected user agent %q", last.Header.Get("User-Agent"))
	}
}

func TestCreateFolder_PostsToSiblingContainer(t *testing.T) {
	c, _ := newTestClient(t)
	ent, err := c.CreateFolder(context.Background(), "/api/v1/scripts/main.lua", "lib2")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if ent.URL != "/api/v1/scripts/lib2" || ent.Kind != model.KindFolder || ent.Name != "lib2" {
		t.Fatalf("unexpected entity: %+v", ent)
	}
}

func TestDeleteResource(t *testing.T) {
	c, _ := newTestClient(t)
	ent, err := c.DeleteResource(context.Background(), "/api/v1/scripts/main.lua")
	if err != nil {
		t.Fatalf("DeleteResource: %v", err)
	}
	if ent.URL != "/api/v1/scripts/main.lua" {
		t.Fatalf("unexpected entity: %+v", ent)
	}
}

func TestInfo(t *testing.T) {
	c, _ := newTestClient(t)
	info, err := c.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.API != "maiden" || info.Version != "0.0.1" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestNewHTTPClient_Validates(t *testing.T) {
	if _, err := NewHTTPClient(""); err == nil {
		t.Fatalf("expected error for empty server")
	}
	c, err := NewHTTPClient("localhost:5000", WithAPIRoot("api/v2/"))
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	if c.RootURL() != "/api/v2/scripts" {
		t.Fatalf("RootURL=%q", c.RootURL())
	}
	if got := c.resolve("/api/v2/scripts/a"); got != "http://localhost:5000/api/v2/scripts/a" {
		t.Fatalf("resolve=%q", got)
	}
}

func TestURLHelpers(t *testing.T) {
	if got := ChildURL("/s/", "my lib"); got != "/s/my%20lib" {
		t.Fatalf("ChildURL=%q", got)
	}
	if got := ParentURL("/s/lib/a.lua"); got != "/s/lib" {
		t.Fatalf("ParentURL=%q", got)
	}
	if got := ParentURL("/s/lib/"); got != "/s" {
		t.Fatalf("ParentURL=%q", got)
	}
	if !IsUnder("/s/lib/a.lua", "/s/lib") || IsUnder("/s/library", "/s/lib") || IsUnder("/s/lib", "/s/lib") {
		t.Fatalf("IsUnder mismatch")
	}
	if got := NameOf("/s/my%20lib/"); got != "my lib" {
		t.Fatalf("NameOf=%q", got)
	}
}
