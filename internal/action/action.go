// Package action defines every command and event that can enter the explorer state.
//
// Actions are plain values. Building one never performs I/O; the engine performs the
// store call that a REQUEST stands for and reports the outcome with the matching
// SUCCESS or FAILURE action. The REQUEST, SUCCESS and FAILURE of one operation share a
// correlating url.
package action

import "scriptbench/internal/model"

// Action is the closed set of explorer actions. The marker method is unexported so no
// type outside this package can join the set.
type Action interface {
	Kind() string
	isAction()
}

// Tool names accepted by ToolInvoke.
const (
	ToolAdd       = "add"
	ToolRemove    = "remove"
	ToolDuplicate = "duplicate"
	ToolNewFolder = "new-folder"
)

// Listing of the top level.

type ListRequest struct{}

type ListSuccess struct {
	Entries []model.Entry
}

type ListFailure struct {
	Err error
}

// Listing of one container. Seq numbers the requests per url so the engine can drop
// stale results when asked to.

type DirectoryReadRequest struct {
	URL string
	Seq uint64
}

type DirectoryReadSuccess struct {
	URL     string
	Seq     uint64
	Entries []model.Entry
}

type DirectoryReadFailure struct {
	URL string
	Seq uint64
	Err error
}

// Buffer I/O.

type ReadRequest struct {
	URL string
}

type ReadSuccess struct {
	URL   string
	Value string
}

type ReadFailure struct {
	URL string
	Err error
}

// SaveRequest writes Value for the buffer at URL. Target is where the store should
// put it; it differs from URL only for provisional resources renamed before their
// first save.
type SaveRequest struct {
	URL    string
	Target string
	Value  string
}

type SaveSuccess struct {
	URL    string
	Entity model.Entity
}

type SaveFailure struct {
	URL string
	Err error
}

// ContentChanged is a local edit of the open buffer. It never touches the store.
type ContentChanged struct {
	URL   string
	Value string
}

// Selection.

type Select struct {
	URL string
}

type Toggle struct {
	ID       model.NodeID
	URL      string
	Expanded bool
}

// Create adds a new, not yet saved script next to SiblingURL and opens it.
type Create struct {
	SiblingURL string
	URL        string
	Name       string
	Value      string
}

type DuplicateRequest struct {
	SourceURL string
	URL       string
	Name      string
}

type DuplicateSuccess struct {
	SourceURL string
	URL       string
	Value     string
}

type DuplicateFailure struct {
	SourceURL string
	URL       string
	Err       error
}

// RenameRequest renames URL to Name. A virtual rename never reaches the store.
type RenameRequest struct {
	URL     string
	Name    string
	Virtual bool
}

// RenameSuccess carries the url assigned by the store. NewURL is empty after a
// virtual rename: the node still has no durable identity.
type RenameSuccess struct {
	URL    string
	Name   string
	NewURL string
}

type RenameFailure struct {
	URL  string
	Name string
	Err  error
}

type DeleteRequest struct {
	URL string
}

// DeleteSuccess removes URL and its subtree. Removed lists every url that went with
// it; the engine fills it from the tree it dispatches against.
type DeleteSuccess struct {
	URL     string
	Removed []string
}

type DeleteFailure struct {
	URL string
	Err error
}

type FolderCreateRequest struct {
	SiblingURL string
	Name       string
}

type FolderCreateSuccess struct {
	SiblingURL string
	Entity     model.Entity
}

type FolderCreateFailure struct {
	SiblingURL string
	Name       string
	Err        error
}

// ToolInvoke records an explorer toolbar action. The engine translates it into the
// structural commands above.
type ToolInvoke struct {
	Name string
}

func (ListRequest) Kind() string          { return "list.request" }
func (ListSuccess) Kind() string          { return "list.success" }
func (ListFailure) Kind() string          { return "list.failure" }
func (DirectoryReadRequest) Kind() string { return "directory.read.request" }
func (DirectoryReadSuccess) Kind() string { return "directory.read.success" }
func (DirectoryReadFailure) Kind() string { return "directory.read.failure" }
func (ReadRequest) Kind() string          { return "buffer.read.request" }
func (ReadSuccess) Kind() string          { return "buffer.read.success" }
func (ReadFailure) Kind() string          { return "buffer.read.failure" }
func (SaveRequest) Kind() string          { return "buffer.save.request" }
func (SaveSuccess) Kind() string          { return "buffer.save.success" }
func (SaveFailure) Kind() string          { return "buffer.save.failure" }
func (ContentChanged) Kind() string       { return "buffer.change" }
func (Select) Kind() string               { return "buffer.select" }
func (Toggle) Kind() string               { return "explorer.toggle" }
func (Create) Kind() string               { return "script.new" }
func (DuplicateRequest) Kind() string     { return "script.duplicate.request" }
func (DuplicateSuccess) Kind() string     { return "script.duplicate.success" }
func (DuplicateFailure) Kind() string     { return "script.duplicate.failure" }
func (RenameRequest) Kind() string        { return "resource.rename.request" }
func (RenameSuccess) Kind() string        { return "resource.rename.success" }
func (RenameFailure) Kind() string        { return "resource.rename.failure" }
func (DeleteRequest) Kind() string        { return "resource.delete.request" }
func (DeleteSuccess) Kind() string        { return "resource.delete.success" }
func (DeleteFailure) Kind() string        { return "resource.delete.failure" }
func (FolderCreateRequest) Kind() string  { return "folder.create.request" }
func (FolderCreateSuccess) Kind() string  { return "folder.create.success" }
func (FolderCreateFailure) Kind() string  { return "folder.create.failure" }
func (ToolInvoke) Kind() string           { return "tool.invoke" }

func (ListRequest) isAction()          {}
func (ListSuccess) isAction()          {}
func (ListFailure) isAction()          {}
func (DirectoryReadRequest) isAction() {}
func (DirectoryReadSuccess) isAction() {}
func (DirectoryReadFailure) isAction() {}
func (ReadRequest) isAction()          {}
func (ReadSuccess) isAction()          {}
func (ReadFailure) isAction()          {}
func (SaveRequest) isAction()          {}
func (SaveSuccess) isAction()          {}
func (SaveFailure) isAction()          {}
func (ContentChanged) isAction()       {}
func (Select) isAction()               {}
func (Toggle) isAction()               {}
func (Create) isAction()               {}
func (DuplicateRequest) isAction()     {}
func (DuplicateSuccess) isAction()     {}
func (DuplicateFailure) isAction()     {}
func (RenameRequest) isAction()        {}
func (RenameSuccess) isAction()        {}
func (RenameFailure) isAction()        {}
func (DeleteRequest) isAction()        {}
func (DeleteSuccess) isAction()        {}
func (DeleteFailure) isAction()        {}
func (FolderCreateRequest) isAction()  {}
func (FolderCreateSuccess) isAction()  {}
func (FolderCreateFailure) isAction()  {}
func (ToolInvoke) isAction()           {}

// All returns the zero value of every action variant, in declaration order.
func All() []Action {
	return []Action{
		ListRequest{}, ListSuccess{}, ListFailure{},
		DirectoryReadRequest{}, DirectoryReadSuccess{}, DirectoryReadFailure{},
		ReadRequest{}, ReadSuccess{}, ReadFailure{},
		SaveRequest{}, SaveSuccess{}, SaveFailure{},
		ContentChanged{},
		Select{}, Toggle{},
		Create{},
		DuplicateRequest{}, DuplicateSuccess{}, DuplicateFailure{},
		RenameRequest{}, RenameSuccess{}, RenameFailure{},
		DeleteRequest{}, DeleteSuccess{}, DeleteFailure{},
		FolderCreateRequest{}, FolderCreateSuccess{}, FolderCreateFailure{},
		ToolInvoke{},
	}
}

// IsFailure reports whether a is the FAILURE leg of a triad.
func IsFailure(a Action) bool {
	switch a.(type) {
	case ListFailure, DirectoryReadFailure, ReadFailure, SaveFailure,
		DuplicateFailure, RenameFailure, DeleteFailure, FolderCreateFailure:
		return true
	}
	return false
}
