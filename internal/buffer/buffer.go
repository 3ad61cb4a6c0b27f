// Package buffer holds the single open document and the reducer that evolves it.
package buffer

import (
	"fmt"
	"slices"
	"strings"

	"scriptbench/internal/action"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusReading Status = "reading"
	StatusSaving  Status = "saving"
	StatusError   Status = "error"
)

// Buffer is the in-memory copy of one leaf resource. An empty Resource means no
// document is open.
type Buffer struct {
	Resource string `json:"resource,omitempty"`
	Content  string `json:"content"`
	Dirty    bool   `json:"dirty,omitempty"`
	Status   Status `json:"status"`
	// Err is the detail of the last failed read or save for Resource.
	Err error `json:"-"`
}

func (b Buffer) Open() bool { return b.Resource != "" }

func (b Buffer) Busy() bool { return b.Status == StatusReading || b.Status == StatusSaving }

// Reduce returns the buffer that follows b after a.
func Reduce(b Buffer, a action.Action) Buffer {
	if b.Status == "" {
		b.Status = StatusIdle
	}
	switch a := a.(type) {
	case action.Select:
		return open(b, a.URL)

	case action.ReadRequest:
		return open(b, a.URL)

	case action.ReadSuccess:
		if b.Resource != a.URL {
			return b
		}
		b.Content = a.Value
		b.Dirty = false
		b.Status = StatusIdle
		b.Err = nil
		return b

	case action.ReadFailure:
		if b.Resource != a.URL {
			return b
		}
		b.Status = StatusError
		b.Err = a.Err
		return b

	case action.ContentChanged:
		b.Content = a.Value
		b.Dirty = true
		return b

	case action.SaveRequest:
		if b.Resource != a.URL {
			return b
		}
		b.Status = StatusSaving
		b.Err = nil
		return b

	case action.SaveSuccess:
		if b.Resource != a.URL {
			return b
		}
		if a.Entity.URL != "" {
			b.Resource = a.Entity.URL
		}
		b.Content = a.Entity.Value
		b.Dirty = false
		b.Status = StatusIdle
		b.Err = nil
		return b

	case action.SaveFailure:
		if b.Resource != a.URL {
			return b
		}
		b.Status = StatusError
		b.Err = a.Err
		return b

	case action.Create:
		return Buffer{Resource: a.URL, Content: a.Value, Dirty: true, Status: StatusIdle}

	case action.DuplicateSuccess:
		return Buffer{Resource: a.URL, Content: a.Value, Dirty: true, Status: StatusIdle}

	case action.DeleteSuccess:
		if b.Resource == "" {
			return b
		}
		if b.Resource == a.URL || under(b.Resource, a.URL) || slices.Contains(a.Removed, b.Resource) {
			return Buffer{Status: StatusIdle}
		}
		return b

	case action.RenameSuccess:
		if a.NewURL == "" || b.Resource == "" {
			return b
		}
		if b.Resource == a.URL {
			b.Resource = a.NewURL
		} else if under(b.Resource, a.URL) {
			b.Resource = strings.TrimRight(a.NewURL, "/") + "/" + strings.TrimPrefix(b.Resource, strings.TrimRight(a.URL, "/")+"/")
		}
		return b

	case action.ListRequest, action.ListSuccess, action.ListFailure,
		action.DirectoryReadRequest, action.DirectoryReadSuccess, action.DirectoryReadFailure,
		action.Toggle,
		action.DuplicateRequest, action.DuplicateFailure,
		action.RenameRequest, action.RenameFailure,
		action.DeleteRequest, action.DeleteFailure,
		action.FolderCreateRequest, action.FolderCreateSuccess, action.FolderCreateFailure,
		action.ToolInvoke:
		return b

	default:
		panic(fmt.Sprintf("buffer: unhandled action %T", a))
	}
}

// open discards any unsaved edits and starts reading url. Re-reading the open
// resource keeps its last content on screen until the read settles.
func open(b Buffer, url string) Buffer {
	next := Buffer{Resource: url, Status: StatusReading}
	if b.Resource == url {
		next.Content = b.Content
	}
	return next
}

func under(url, ancestor string) bool {
	ancestor = strings.TrimRight(ancestor, "/")
	return ancestor != "" && strings.HasPrefix(url, ancestor+"/")
}
