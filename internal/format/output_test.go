package format

import (
	"bytes"
	"strings"
	"testing"

	"scriptbench/internal/model"
)

func TestWrite_JSONIsDefault(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]int{"n": 1}, "", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.String(); got != "{\"n\":1}\n" {
		t.Fatalf("got %q", got)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, nil, "edn", false); err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestWriteText_Entries(t *testing.T) {
	var buf bytes.Buffer
	entries := []model.Entry{
		{URL: "/s/a.lua", Name: "a.lua", Kind: model.KindScript},
		{URL: "/s/lib", Name: "lib", Kind: model.KindFolder},
	}
	if err := Write(&buf, entries, "text", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "a.lua\t/s/a.lua\nlib/\t/s/lib\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestWriteText_StringGetsTrailingNewline(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteText(&buf, "print('a')")
	_ = WriteText(&buf, "done\n")
	if buf.String() != "print('a')\ndone\n" {
		t.Fatalf("got %q", buf.String())
	}
}

type rendered struct{}

func (rendered) Text() string { return "custom" }

func TestWriteText_TexterAndFallback(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteText(&buf, rendered{})
	_ = WriteText(&buf, struct {
		A int `json:"a"`
	}{A: 2})
	if !strings.HasPrefix(buf.String(), "custom\n{\n  \"a\": 2\n}") {
		t.Fatalf("got %q", buf.String())
	}
}
