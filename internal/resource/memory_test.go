package resource

import (
	"context"
	"errors"
	"testing"
)

func TestMemory_ListRenameDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("/s")
	m.Put("/s/lib/util.lua", "u")
	m.Put("/s/main.lua", "m")

	top, err := m.ListTopLevel(ctx)
	if err != nil {
		t.Fatalf("ListTopLevel: %v", err)
	}
	if len(top) != 2 || top[0].URL != "/s/lib" || !top[0].Kind.IsContainer() || top[1].URL != "/s/main.lua" {
		t.Fatalf("unexpected listing: %+v", top)
	}

	to, err := m.RenameResource(ctx, "/s/lib", "pkg")
	if err != nil {
		t.Fatalf("RenameResource: %v", err)
	}
	if to != "/s/pkg" {
		t.Fatalf("renamed to %q", to)
	}
	if v, ok := m.Text("/s/pkg/util.lua"); !ok || v != "u" {
		t.Fatalf("expected file to move with its folder")
	}

	if _, err := m.DeleteResource(ctx, "/s/pkg"); err != nil {
		t.Fatalf("DeleteResource: %v", err)
	}
	if m.Exists("/s/pkg/util.lua") || m.Exists("/s/pkg") {
		t.Fatalf("expected subtree removed")
	}
	if _, err := m.ReadText(ctx, "/s/pkg/util.lua"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_RenameConflict(t *testing.T) {
	m := NewMemory("/s")
	m.Put("/s/a.lua", "a")
	m.Put("/s/b.lua", "b")
	_, err := m.RenameResource(context.Background(), "/s/a.lua", "b.lua")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 409 {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMemory_FailAndNormalize(t *testing.T) {
	m := NewMemory("/s")
	m.Normalize = func(s string) string { return s + "\n" }
	boom := errors.New("boom")
	m.Fail = func(op, url string) error {
		if op == "ReadText" {
			return boom
		}
		return nil
	}
	ent, err := m.WriteText(context.Background(), "/s/a.lua", "x")
	if err != nil || ent.Value != "x\n" {
		t.Fatalf("WriteText: %+v %v", ent, err)
	}
	if _, err := m.ReadText(context.Background(), "/s/a.lua"); !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	calls := m.Calls()
	if len(calls) != 2 || calls[0] != "WriteText /s/a.lua" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}
