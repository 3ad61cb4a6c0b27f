package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"scriptbench/internal/model"
)

// Texter is implemented by values with a human-readable rendering.
type Texter interface {
	Text() string
}

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - text
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "text":
		return WriteText(w, v)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteText writes a plain rendering: strings verbatim, entries one per line
// (folders with a trailing slash), everything else as indented JSON.
func WriteText(w io.Writer, v any) error {
	switch x := v.(type) {
	case Texter:
		return writeLine(w, x.Text())
	case string:
		return writeLine(w, x)
	case []string:
		return writeLine(w, strings.Join(x, "\n"))
	case []model.Entry:
		var sb strings.Builder
		for _, e := range x {
			sb.WriteString(entryLine(e))
			sb.WriteByte('\n')
		}
		_, err := io.WriteString(w, sb.String())
		return err
	case model.Entry:
		return writeLine(w, entryLine(x))
	case model.Entity:
		return writeLine(w, x.Value)
	}
	return WriteJSON(w, v, true)
}

func entryLine(e model.Entry) string {
	name := e.Name
	if e.Kind.IsContainer() {
		name += "/"
	}
	return name + "\t" + e.URL
}

func writeLine(w io.Writer, s string) error {
	if s != "" && !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(w, s)
	return err
}
