package tree

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"scriptbench/internal/action"
	"scriptbench/internal/model"
)

// Reduce returns the tree that follows t after a. It does not modify t. When a does
// not concern the tree, t is returned as is.
func Reduce(t Tree, a action.Action) Tree {
	t = t.ensure()
	switch a := a.(type) {
	case action.ListRequest:
		return t.updateAt(nil, setLoading(true))

	case action.ListSuccess:
		t2 := t
		root := *t.root
		root.Children = t2.children(a.Entries, t.root.Children)
		root.Loaded = true
		root.Loading = false
		t2.root = &root
		return t2.markActive()

	case action.ListFailure:
		return t.updateAt(nil, setLoading(false))

	case action.DirectoryReadRequest:
		return t.updateURL(a.URL, setLoading(true))

	case action.DirectoryReadSuccess:
		p, ok := locate(t.root, byURL(a.URL))
		if !ok {
			// The container went away while the listing was in flight.
			return t
		}
		prev := t.at(p, true)
		if !prev.IsContainer() {
			return t
		}
		kids := t.children(a.Entries, prev.Children)
		t = t.updateAt(p, func(n *Node) *Node {
			cp := *n
			cp.Children = kids
			cp.Loaded = true
			cp.Loading = false
			return &cp
		})
		return t.markActive()

	case action.DirectoryReadFailure:
		return t.updateURL(a.URL, setLoading(false))

	case action.Toggle:
		return t.updateFirst(byID(a.ID), func(n *Node) *Node {
			if !n.IsContainer() || n.Toggled == a.Expanded {
				return n
			}
			cp := *n
			cp.Toggled = a.Expanded
			return &cp
		})

	case action.Select:
		if n := t.Find(a.URL); n != nil && (n.IsContainer() || n.Active) {
			return t
		}
		t = t.clearActive()
		t.active = a.URL
		return t.markActive()

	case action.ContentChanged:
		return t.updateURL(a.URL, func(n *Node) *Node {
			if n.Modified || n.IsContainer() {
				return n
			}
			cp := *n
			cp.Modified = true
			return &cp
		})

	case action.SaveSuccess:
		newURL := a.URL
		if a.Entity.URL != "" {
			newURL = a.Entity.URL
		}
		t = t.updateURL(a.URL, func(n *Node) *Node {
			cp := *n
			cp.URL = newURL
			cp.Modified = false
			cp.Provisional = false
			if a.Entity.Name != "" {
				cp.Name = a.Entity.Name
			}
			return &cp
		})
		if t.active == a.URL {
			t.active = newURL
		}
		return t

	case action.Create:
		t = t.clearActive()
		n := &Node{
			ID:          t.allocID(),
			URL:         a.URL,
			Name:        a.Name,
			Kind:        model.KindScript,
			Active:      true,
			Modified:    true,
			Provisional: true,
		}
		t.active = a.URL
		return t.insertAfter(a.SiblingURL, n)

	case action.DuplicateRequest:
		n := &Node{
			ID:          t.allocID(),
			URL:         a.URL,
			Name:        a.Name,
			Kind:        model.KindScript,
			Provisional: true,
			Pending:     PendingDuplicate,
		}
		return t.insertAfter(a.SourceURL, n)

	case action.DuplicateSuccess:
		t = t.clearActive()
		t.active = a.URL
		return t.updateURL(a.URL, func(n *Node) *Node {
			cp := *n
			cp.Pending = PendingNone
			cp.Modified = true
			cp.Active = true
			return &cp
		})

	case action.DuplicateFailure:
		placeholder := func(n *Node) bool { return n.URL == a.URL && n.Provisional }
		p, ok := locate(t.Root(), placeholder)
		if !ok {
			return t
		}
		id := t.at(p, ok).ID
		t = t.updateFirst(placeholder, func(*Node) *Node { return nil })
		if id == t.nextID-1 {
			t.nextID = id
		}
		return t

	case action.RenameRequest:
		return t.updateURL(a.URL, setPending(PendingRename))

	case action.RenameSuccess:
		t = t.updateURL(a.URL, func(n *Node) *Node {
			cp := *n
			cp.Name = a.Name
			if a.NewURL != "" {
				cp.URL = a.NewURL
			}
			cp.Pending = PendingNone
			return &cp
		})
		if a.NewURL != "" {
			if u, ok := rebase(t.active, a.URL, a.NewURL); ok {
				t.active = u
			}
		}
		return t

	case action.RenameFailure:
		return t.updateURL(a.URL, setPending(PendingNone))

	case action.DeleteRequest:
		return t.updateURL(a.URL, setPending(PendingDelete))

	case action.DeleteSuccess:
		if n := t.Find(a.URL); n != nil {
			Walk(n, func(n *Node, _ int) bool {
				if n.URL == t.active {
					t.active = ""
				}
				return true
			})
		}
		return t.updateURL(a.URL, func(*Node) *Node { return nil })

	case action.DeleteFailure:
		return t.updateURL(a.URL, setPending(PendingNone))

	case action.FolderCreateRequest:
		return t.updateURL(a.SiblingURL, setPending(PendingCreateFolder))

	case action.FolderCreateSuccess:
		t = t.updateURL(a.SiblingURL, setPending(PendingNone))
		name := a.Entity.Name
		if name == "" {
			name = nameFromURL(a.Entity.URL)
		}
		n := &Node{
			ID:     t.allocID(),
			URL:    a.Entity.URL,
			Name:   name,
			Kind:   model.KindFolder,
			Loaded: true,
		}
		return t.insertAfter(a.SiblingURL, n)

	case action.FolderCreateFailure:
		return t.updateURL(a.SiblingURL, setPending(PendingNone))

	case action.ReadRequest, action.ReadSuccess, action.ReadFailure,
		action.SaveRequest, action.SaveFailure,
		action.ToolInvoke:
		return t

	default:
		panic(fmt.Sprintf("tree: unhandled action %T", a))
	}
}

func nameFromURL(u string) string {
	base := path.Base(strings.TrimRight(u, "/"))
	if name, err := url.PathUnescape(base); err == nil {
		return name
	}
	return base
}
