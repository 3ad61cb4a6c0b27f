package engine

import (
	"context"
	"fmt"
	"path"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"scriptbench/internal/action"
	"scriptbench/internal/buffer"
	"scriptbench/internal/model"
	"scriptbench/internal/resource"
	"scriptbench/internal/tree"
)

const (
	DefaultScriptName = "untitled.lua"
	DefaultFolderName = "folder"
)

// LoadScripts lists the top level.
func (e *Engine) LoadScripts() tea.Cmd {
	e.dispatch(action.ListRequest{})
	client := e.client
	return e.call(func(ctx context.Context) action.Action {
		entries, err := client.ListTopLevel(ctx)
		if err != nil {
			return action.ListFailure{Err: err}
		}
		return action.ListSuccess{Entries: entries}
	})
}

// Toggle expands or collapses the node with the given id. Expanding a container that
// was never listed lists it; toggling a script selects it instead.
func (e *Engine) Toggle(id model.NodeID, expanded bool) tea.Cmd {
	n := e.state.Tree.Node(id)
	if n == nil {
		return nil
	}
	if !n.IsContainer() {
		cmd, _ := e.Select(n.URL)
		return cmd
	}
	wasOpen := n.Toggled
	e.dispatch(action.Toggle{ID: id, URL: n.URL, Expanded: expanded})
	if expanded && !wasOpen && !n.Loaded {
		return e.readDir(n.URL)
	}
	return nil
}

// Refresh lists url again: the top level for "" or the root url, a container, or the
// open script when url names it.
func (e *Engine) Refresh(url string) tea.Cmd {
	if url == "" || url == e.client.RootURL() {
		return e.LoadScripts()
	}
	n := e.state.Tree.Find(url)
	if n != nil && !n.IsContainer() {
		e.dispatch(action.ReadRequest{URL: url})
		return e.read(url)
	}
	return e.readDir(url)
}

func (e *Engine) readDir(url string) tea.Cmd {
	e.lastSeq++
	seq := e.lastSeq
	e.latest[url] = seq
	e.dispatch(action.DirectoryReadRequest{URL: url, Seq: seq})
	client := e.client
	return e.call(func(ctx context.Context) action.Action {
		entries, err := client.ListContainer(ctx, url)
		if err != nil {
			return action.DirectoryReadFailure{URL: url, Seq: seq, Err: err}
		}
		return action.DirectoryReadSuccess{URL: url, Seq: seq, Entries: entries}
	})
}

func (e *Engine) read(url string) tea.Cmd {
	client := e.client
	return e.call(func(ctx context.Context) action.Action {
		text, err := client.ReadText(ctx, url)
		if err != nil {
			return action.ReadFailure{URL: url, Err: err}
		}
		return action.ReadSuccess{URL: url, Value: text}
	})
}

// Select opens the script at url in the buffer, discarding unsaved edits of the
// script open before. Selecting the script already open does nothing.
func (e *Engine) Select(url string) (tea.Cmd, error) {
	if url == "" {
		return nil, NotFoundError{Kind: "script", URL: url}
	}
	n := e.state.Tree.Find(url)
	if n.IsContainer() {
		return nil, fmt.Errorf("select %s: %w", url, ErrNotLeaf)
	}
	b := e.state.Buffer
	if b.Resource == url && b.Status != buffer.StatusError {
		return nil, nil
	}
	e.dispatch(action.Select{URL: url})
	if n != nil && n.Provisional {
		// Never stored, and its text went away with the previous selection.
		e.dispatch(action.ReadSuccess{URL: url})
		return nil, nil
	}
	return e.read(url), nil
}

// ChangeContent replaces the text of the open buffer.
func (e *Engine) ChangeContent(value string) error {
	b := e.state.Buffer
	if !b.Open() {
		return ErrNoBuffer
	}
	e.dispatch(action.ContentChanged{URL: b.Resource, Value: value})
	return nil
}

// Save writes the open buffer to the store. A script that was never stored is
// written under its current name.
func (e *Engine) Save() (tea.Cmd, error) {
	b := e.state.Buffer
	if !b.Open() {
		return nil, ErrNoBuffer
	}
	url, target, value := b.Resource, b.Resource, b.Content
	if n := e.state.Tree.Find(url); n != nil && n.Provisional && n.Name != resource.NameOf(url) {
		target = resource.ChildURL(e.parentURL(url), n.Name)
	}
	e.dispatch(action.SaveRequest{URL: url, Target: target, Value: value})
	client := e.client
	return e.call(func(ctx context.Context) action.Action {
		ent, err := client.WriteText(ctx, target, value)
		if err != nil {
			return action.SaveFailure{URL: url, Err: err}
		}
		return action.SaveSuccess{URL: url, Entity: ent}
	}), nil
}

// NewScript adds an unsaved script next to siblingURL, or at the end of the top level
// when siblingURL is empty, and opens it. It returns the url the script will be saved
// under; the name is made unique within its container.
func (e *Engine) NewScript(siblingURL, name, value string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultScriptName
	}
	if err := validName(name); err != nil {
		return "", err
	}
	parent := e.client.RootURL()
	if siblingURL != "" {
		parent = e.parentURL(siblingURL)
	}
	name = uniqueName(e.siblingNames(siblingURL), name)
	url := resource.ChildURL(parent, name)
	e.dispatch(action.Create{SiblingURL: siblingURL, URL: url, Name: name, Value: value})
	return url, nil
}

// Duplicate places a copy of the script at url right after it and opens the copy
// unsaved.
func (e *Engine) Duplicate(url string) (tea.Cmd, error) {
	n := e.state.Tree.Find(url)
	if n == nil {
		return nil, NotFoundError{Kind: "script", URL: url}
	}
	if n.IsContainer() {
		return nil, fmt.Errorf("duplicate %s: %w", url, ErrNotLeaf)
	}
	name := uniqueName(e.siblingNames(url), copyName(n.Name))
	to := resource.ChildURL(e.parentURL(url), name)
	e.dispatch(action.DuplicateRequest{SourceURL: url, URL: to, Name: name})

	b := e.state.Buffer
	if b.Resource == url && !b.Busy() {
		value := b.Content
		return func() tea.Msg {
			return action.DuplicateSuccess{SourceURL: url, URL: to, Value: value}
		}, nil
	}
	if n.Provisional {
		return func() tea.Msg {
			return action.DuplicateSuccess{SourceURL: url, URL: to}
		}, nil
	}
	client := e.client
	return e.call(func(ctx context.Context) action.Action {
		text, err := client.ReadText(ctx, url)
		if err != nil {
			return action.DuplicateFailure{SourceURL: url, URL: to, Err: err}
		}
		return action.DuplicateSuccess{SourceURL: url, URL: to, Value: text}
	}), nil
}

// Rename gives the resource at url a new name in the same container. Scripts that
// were never stored are renamed locally.
func (e *Engine) Rename(url, name string) (tea.Cmd, error) {
	name = strings.TrimSpace(name)
	if err := validName(name); err != nil {
		return nil, err
	}
	n := e.state.Tree.Find(url)
	if n == nil {
		return nil, NotFoundError{Kind: "resource", URL: url}
	}
	if n.Name == name {
		return nil, nil
	}
	if n.Provisional {
		// Nothing in the store yet to refuse the name, and Save would overwrite the sibling.
		if e.siblingNames(url)[name] {
			return nil, fmt.Errorf("rename %s: %w: %q", url, ErrNameTaken, name)
		}
		e.dispatch(action.RenameRequest{URL: url, Name: name, Virtual: true})
		e.dispatch(action.RenameSuccess{URL: url, Name: name})
		return nil, nil
	}
	e.dispatch(action.RenameRequest{URL: url, Name: name})
	client := e.client
	return e.call(func(ctx context.Context) action.Action {
		to, err := client.RenameResource(ctx, url, name)
		if err != nil {
			return action.RenameFailure{URL: url, Name: name, Err: err}
		}
		return action.RenameSuccess{URL: url, Name: name, NewURL: to}
	}), nil
}

// CreateFolder creates a folder in the container holding siblingURL. The tree shows it
// once the store confirms.
func (e *Engine) CreateFolder(siblingURL, name string) (tea.Cmd, error) {
	name = strings.TrimSpace(name)
	if err := validName(name); err != nil {
		return nil, err
	}
	e.dispatch(action.FolderCreateRequest{SiblingURL: siblingURL, Name: name})
	client := e.client
	return e.call(func(ctx context.Context) action.Action {
		ent, err := client.CreateFolder(ctx, siblingURL, name)
		if err != nil {
			return action.FolderCreateFailure{SiblingURL: siblingURL, Name: name, Err: err}
		}
		return action.FolderCreateSuccess{SiblingURL: siblingURL, Entity: ent}
	}), nil
}

// Confirmation asks the user to approve a destructive command.
type Confirmation struct {
	URL        string
	Message    string
	Supporting string

	proceed func() tea.Cmd
}

// Resolve reports the user's answer. It dispatches, so it must run where Update runs.
func (c *Confirmation) Resolve(ok bool) tea.Cmd {
	if c == nil || !ok || c.proceed == nil {
		return nil
	}
	return c.proceed()
}

// ConfirmMsg carries a Confirmation to whoever presents it.
type ConfirmMsg struct {
	Confirmation *Confirmation
}

// RequestDelete prepares the deletion of url and its subtree. Nothing happens until
// the returned confirmation is resolved with ok.
func (e *Engine) RequestDelete(url string) (*Confirmation, error) {
	n := e.state.Tree.Find(url)
	if n == nil {
		return nil, NotFoundError{Kind: "resource", URL: url}
	}
	return &Confirmation{
		URL:        url,
		Message:    fmt.Sprintf("Delete %q?", n.Name),
		Supporting: "This operation cannot be undone.",
		proceed:    func() tea.Cmd { return e.Delete(url) },
	}, nil
}

// Delete removes url and its subtree without asking.
func (e *Engine) Delete(url string) tea.Cmd {
	e.dispatch(action.DeleteRequest{URL: url})
	if n := e.state.Tree.Find(url); n != nil && n.Provisional {
		e.dispatch(action.DeleteSuccess{URL: url})
		return nil
	}
	client := e.client
	return e.call(func(ctx context.Context) action.Action {
		if _, err := client.DeleteResource(ctx, url); err != nil {
			return action.DeleteFailure{URL: url, Err: err}
		}
		return action.DeleteSuccess{URL: url}
	})
}

// InvokeTool runs an explorer tool against the open script. "remove" yields a
// ConfirmMsg instead of deleting.
func (e *Engine) InvokeTool(name string) (tea.Cmd, error) {
	switch name {
	case action.ToolAdd, action.ToolRemove, action.ToolDuplicate, action.ToolNewFolder:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	e.dispatch(action.ToolInvoke{Name: name})
	active := e.state.Buffer.Resource

	switch name {
	case action.ToolAdd:
		_, err := e.NewScript(active, "", "")
		return nil, err
	case action.ToolNewFolder:
		return e.CreateFolder(active, uniqueName(e.siblingNames(active), DefaultFolderName))
	}

	if active == "" {
		return nil, ErrNoBuffer
	}
	if name == action.ToolDuplicate {
		return e.Duplicate(active)
	}
	c, err := e.RequestDelete(active)
	if err != nil {
		return nil, err
	}
	return func() tea.Msg { return ConfirmMsg{Confirmation: c} }, nil
}

// parentURL is the url of the container holding url: from the tree when the node is
// loaded, from the url itself otherwise.
func (e *Engine) parentURL(url string) string {
	if p := e.state.Tree.ParentOf(url); p != nil {
		if p.URL == "" {
			return e.client.RootURL()
		}
		return p.URL
	}
	return resource.ParentURL(url)
}

// siblingNames are the names in the container that holds url, or in the top level
// when url is empty.
func (e *Engine) siblingNames(url string) map[string]bool {
	var kids []*tree.Node
	if url == "" {
		kids = e.state.Tree.Top()
	} else if p := e.state.Tree.ParentOf(url); p != nil {
		kids = p.Children
	}
	names := make(map[string]bool, len(kids))
	for _, k := range kids {
		names[k.Name] = true
	}
	return names
}

func validName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, "/\\"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}

func splitExt(name string) (string, string) {
	ext := path.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

func copyName(name string) string {
	stem, ext := splitExt(name)
	return stem + "-copy" + ext
}

// uniqueName returns name, or name with a -2, -3, ... suffix before its extension,
// whichever is first free in taken.
func uniqueName(taken map[string]bool, name string) string {
	if !taken[name] {
		return name
	}
	stem, ext := splitExt(name)
	for i := 2; ; i++ {
		n := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if !taken[n] {
			return n
		}
	}
}
