// Package resource talks to the script store: a remote tree of url-addressed scripts
// and folders.
package resource

import (
	"context"
	"net/url"
	"path"
	"strings"

	"scriptbench/internal/model"
)

// Client is the store contract the engine depends on. Calls are independent of each
// other; none is atomic with another.
type Client interface {
	// RootURL is the url of the top-level container.
	RootURL() string

	ListTopLevel(ctx context.Context) ([]model.Entry, error)
	ListContainer(ctx context.Context, url string) ([]model.Entry, error)
	ReadText(ctx context.Context, url string) (string, error)
	// WriteText stores text at url and returns the stored resource, whose Value may be
	// a normalized form of text.
	WriteText(ctx context.Context, url, text string) (model.Entity, error)
	DeleteResource(ctx context.Context, url string) (model.Entity, error)
	// RenameResource renames url within its container and returns the new url.
	RenameResource(ctx context.Context, url, name string) (string, error)
	// CreateFolder creates a folder named name in the container holding siblingURL, or
	// at the top level when siblingURL is empty.
	CreateFolder(ctx context.Context, siblingURL, name string) (model.Entity, error)
}

// ChildURL is the url of name inside the container at parent.
func ChildURL(parent, name string) string {
	return strings.TrimRight(parent, "/") + "/" + url.PathEscape(name)
}

// ParentURL is the url of the container holding u.
func ParentURL(u string) string {
	u = strings.TrimRight(u, "/")
	i := strings.LastIndex(u, "/")
	if i <= 0 {
		return "/"
	}
	return u[:i]
}

// IsUnder reports whether u lies strictly below ancestor.
func IsUnder(u, ancestor string) bool {
	ancestor = strings.TrimRight(ancestor, "/")
	return ancestor != "" && strings.HasPrefix(u, ancestor+"/")
}

// NameOf is the unescaped last segment of u.
func NameOf(u string) string {
	base := path.Base(strings.TrimRight(u, "/"))
	if name, err := url.PathUnescape(base); err == nil {
		return name
	}
	return base
}
