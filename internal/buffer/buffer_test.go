package buffer

import (
	"errors"
	"reflect"
	"testing"

	"scriptbench/internal/action"
	"scriptbench/internal/model"
)

func apply(b Buffer, actions ...action.Action) Buffer {
	for _, a := range actions {
		b = Reduce(b, a)
	}
	return b
}

func TestSelect_StartsReadAndDiscardsEdits(t *testing.T) {
	b := Buffer{Resource: "/a", Content: "edited", Dirty: true, Status: StatusIdle}
	b = Reduce(b, action.Select{URL: "/b"})
	if b.Resource != "/b" || b.Dirty || b.Status != StatusReading {
		t.Fatalf("unexpected buffer: %+v", b)
	}
}

func TestReadSuccess_StaleResultIsDropped(t *testing.T) {
	b := apply(Buffer{},
		action.Select{URL: "/a"},
		action.Select{URL: "/b"},
		action.ReadSuccess{URL: "/b", Value: "bee"},
	)
	got := Reduce(b, action.ReadSuccess{URL: "/a", Value: "x"})
	if got.Content != "bee" || got.Resource != "/b" {
		t.Fatalf("late read for /a leaked into the buffer: %+v", got)
	}
}

func TestReadFailure_KeepsContent(t *testing.T) {
	boom := errors.New("boom")
	b := apply(Buffer{},
		action.ReadRequest{URL: "/a"},
		action.ReadSuccess{URL: "/a", Value: "old"},
		action.ReadRequest{URL: "/a"},
	)
	b = Reduce(b, action.ReadFailure{URL: "/a", Err: boom})
	if b.Status != StatusError || b.Content != "old" || !errors.Is(b.Err, boom) {
		t.Fatalf("unexpected buffer: %+v", b)
	}
}

func TestContentChanged_WhileSaving(t *testing.T) {
	b := Buffer{Resource: "/a", Content: "one", Status: StatusSaving}
	b = Reduce(b, action.ContentChanged{URL: "/a", Value: "two"})
	if b.Content != "two" || !b.Dirty || b.Status != StatusSaving {
		t.Fatalf("edits must never be blocked: %+v", b)
	}
}

func TestSaveFailure_KeepsDirty(t *testing.T) {
	b := Buffer{Resource: "/a/x", Content: "old", Status: StatusIdle}
	b = Reduce(b, action.ContentChanged{URL: "/a/x", Value: "new"})
	if !b.Dirty || b.Content != "new" {
		t.Fatalf("expected dirty new content, got %+v", b)
	}
	b = apply(b,
		action.SaveRequest{URL: "/a/x", Value: "new"},
		action.SaveFailure{URL: "/a/x", Err: errors.New("offline")},
	)
	if !b.Dirty || b.Status != StatusError || b.Content != "new" {
		t.Fatalf("failed save must keep the edits: %+v", b)
	}
}

func TestSaveSuccess_UsesCanonicalValue(t *testing.T) {
	b := Buffer{Resource: "/a", Content: "x ", Dirty: true, Status: StatusIdle}
	b = apply(b,
		action.SaveRequest{URL: "/a", Value: "x "},
		action.SaveSuccess{URL: "/a", Entity: model.Entity{URL: "/a", Value: "x"}},
	)
	if b.Content != "x" || b.Dirty || b.Status != StatusIdle {
		t.Fatalf("unexpected buffer: %+v", b)
	}
}

func TestSaveSuccess_ForOtherResourceIsDropped(t *testing.T) {
	b := Buffer{Resource: "/b", Content: "bee", Dirty: true, Status: StatusIdle}
	got := Reduce(b, action.SaveSuccess{URL: "/a", Entity: model.Entity{URL: "/a", Value: "a"}})
	if !reflect.DeepEqual(got, b) {
		t.Fatalf("late save for /a changed the buffer: %+v", got)
	}
}

func TestSaveSuccess_AdoptsStoreURL(t *testing.T) {
	b := Reduce(Buffer{}, action.Create{URL: "/untitled.lua", Name: "main.lua", Value: "v"})
	b = Reduce(b, action.SaveSuccess{URL: "/untitled.lua", Entity: model.Entity{URL: "/main.lua", Value: "v"}})
	if b.Resource != "/main.lua" || b.Dirty {
		t.Fatalf("unexpected buffer: %+v", b)
	}
}

func TestDeleteSuccess_ClearsDependentBuffer(t *testing.T) {
	cases := []struct {
		name    string
		del     action.DeleteSuccess
		cleared bool
	}{
		{"same url", action.DeleteSuccess{URL: "/a/x"}, true},
		{"ancestor", action.DeleteSuccess{URL: "/a"}, true},
		{"ancestor with slash", action.DeleteSuccess{URL: "/a/"}, true},
		{"listed in removed", action.DeleteSuccess{URL: "/other", Removed: []string{"/other", "/a/x"}}, true},
		{"sibling prefix", action.DeleteSuccess{URL: "/a/xy"}, false},
		{"unrelated", action.DeleteSuccess{URL: "/b"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := Buffer{Resource: "/a/x", Content: "c", Dirty: true, Status: StatusIdle}
			got := Reduce(b, tc.del)
			if tc.cleared && got.Resource != "" {
				t.Fatalf("expected buffer cleared, got %+v", got)
			}
			if !tc.cleared && got.Resource != "/a/x" {
				t.Fatalf("expected buffer kept, got %+v", got)
			}
		})
	}
}

func TestRenameSuccess_FollowsResource(t *testing.T) {
	b := Buffer{Resource: "/lib/util.lua", Content: "c", Status: StatusIdle}
	b = Reduce(b, action.RenameSuccess{URL: "/lib", Name: "pkg", NewURL: "/pkg"})
	if b.Resource != "/pkg/util.lua" {
		t.Fatalf("resource=%q", b.Resource)
	}
	b = Reduce(b, action.RenameSuccess{URL: "/pkg/util.lua", Name: "u.lua", NewURL: "/pkg/u.lua"})
	if b.Resource != "/pkg/u.lua" {
		t.Fatalf("resource=%q", b.Resource)
	}
	virtual := Reduce(b, action.RenameSuccess{URL: "/pkg/u.lua", Name: "v.lua"})
	if virtual.Resource != "/pkg/u.lua" {
		t.Fatalf("virtual rename must keep the url, got %q", virtual.Resource)
	}
}

func TestDuplicateSuccess_OpensDirtyCopy(t *testing.T) {
	b := Buffer{Resource: "/a", Content: "a", Status: StatusIdle}
	b = Reduce(b, action.DuplicateSuccess{SourceURL: "/a", URL: "/a-copy", Value: "a"})
	if b.Resource != "/a-copy" || b.Content != "a" || !b.Dirty {
		t.Fatalf("unexpected buffer: %+v", b)
	}
}

func TestFailure_IsIdempotent(t *testing.T) {
	start := Buffer{Resource: "/a", Content: "c", Dirty: true, Status: StatusIdle}
	boom := errors.New("boom")
	once := apply(start, action.SaveRequest{URL: "/a", Value: "c"}, action.SaveFailure{URL: "/a", Err: boom})
	twice := apply(once, action.SaveRequest{URL: "/a", Value: "c"}, action.SaveFailure{URL: "/a", Err: boom})
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("once=%+v twice=%+v", once, twice)
	}
}

func TestReduce_HandlesEveryAction(t *testing.T) {
	b := Buffer{Resource: "/a", Content: "c", Status: StatusIdle}
	for _, a := range action.All() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Reduce panicked on %T: %v", a, r)
				}
			}()
			_ = Reduce(b, a)
		}()
	}
}
