// Package tree holds the explorer's resource tree and the reducer that evolves it.
//
// A Tree is an immutable value. Reduce never edits a node in place: it copies the
// changed node and its ancestors and keeps every other node by pointer, so callers
// can compare nodes with == to find out what changed.
package tree

import (
	"encoding/json"
	"slices"
	"strings"

	"scriptbench/internal/model"
)

// Pending names the structural operation in flight for a node.
type Pending string

const (
	PendingNone         Pending = ""
	PendingRename       Pending = "rename"
	PendingDelete       Pending = "delete"
	PendingDuplicate    Pending = "duplicate"
	PendingCreateFolder Pending = "create-folder"
)

// Node is one resource in the tree. Nodes reachable from a Tree must be treated as
// read-only.
type Node struct {
	ID       model.NodeID `json:"id"`
	URL      string       `json:"url"`
	Name     string       `json:"name"`
	Kind     model.Kind   `json:"kind"`
	Children []*Node      `json:"children,omitempty"`

	Toggled  bool `json:"toggled,omitempty"`
	Loaded   bool `json:"loaded,omitempty"`
	Loading  bool `json:"loading,omitempty"`
	Active   bool `json:"active,omitempty"`
	Modified bool `json:"modified,omitempty"`

	// Provisional nodes exist only locally: created or duplicated, never saved.
	Provisional bool    `json:"provisional,omitempty"`
	Pending     Pending `json:"pending,omitempty"`
}

func (n *Node) IsContainer() bool { return n != nil && n.Kind.IsContainer() }

type Tree struct {
	root   *Node
	nextID model.NodeID
	// active is the url of the resource behind the open buffer. It survives listing
	// refreshes so the replacement node can be marked again.
	active string
}

func New() Tree {
	return Tree{root: &Node{Kind: model.KindFolder}, nextID: 1}
}

func (t Tree) ensure() Tree {
	if t.root == nil {
		t.root = &Node{Kind: model.KindFolder}
	}
	if t.nextID == 0 {
		t.nextID = 1
	}
	return t
}

// Root returns the synthetic container holding the top-level resources.
func (t Tree) Root() *Node { return t.ensure().root }

func (t Tree) Top() []*Node { return t.Root().Children }

func (t Tree) Loading() bool { return t.Root().Loading }

func (t Tree) Loaded() bool { return t.Root().Loaded }

// ActiveURL is the url the tree treats as open, whether or not a node for it is
// currently loaded.
func (t Tree) ActiveURL() string { return t.active }

// Find returns the first node, depth-first and top-to-bottom, with the given url.
func (t Tree) Find(url string) *Node {
	if url == "" {
		return nil
	}
	return t.at(locate(t.Root(), byURL(url)))
}

func (t Tree) Node(id model.NodeID) *Node {
	return t.at(locate(t.Root(), byID(id)))
}

// Active returns the node marked active, if any.
func (t Tree) Active() *Node {
	return t.at(locate(t.Root(), isActive))
}

// ParentOf returns the container holding url. Top-level resources report the root.
func (t Tree) ParentOf(url string) *Node {
	p, ok := locate(t.Root(), byURL(url))
	if !ok {
		return nil
	}
	return t.at(p[:len(p)-1], true)
}

// SubtreeURLs returns url followed by the url of every descendant of its node.
func (t Tree) SubtreeURLs(url string) []string {
	n := t.Find(url)
	if n == nil {
		return nil
	}
	var out []string
	Walk(n, func(n *Node, _ int) bool {
		if n.URL != "" {
			out = append(out, n.URL)
		}
		return true
	})
	return out
}

// Len counts the nodes below the root.
func (t Tree) Len() int {
	count := -1
	Walk(t.Root(), func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Walk visits n and its descendants depth-first, top-to-bottom. Returning false from
// fn skips the children of that node.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if !fn(n, depth) {
			return
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	if n != nil {
		walk(n, 0)
	}
}

// Row is one visible line of the explorer.
type Row struct {
	Node  *Node
	Depth int
}

// Rows flattens the visible part of the tree: top-level nodes plus the children of
// every expanded container.
func (t Tree) Rows() []Row {
	var out []Row
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			out = append(out, Row{Node: n, Depth: depth})
			if n.IsContainer() && n.Toggled {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(t.Top(), 0)
	return out
}

func (t Tree) MarshalJSON() ([]byte, error) {
	top := t.Top()
	if top == nil {
		top = []*Node{}
	}
	return json.Marshal(top)
}

func (t Tree) at(path []int, ok bool) *Node {
	if !ok {
		return nil
	}
	n := t.Root()
	for _, i := range path {
		n = n.Children[i]
	}
	return n
}

func byURL(url string) func(*Node) bool {
	return func(n *Node) bool { return n.URL == url }
}

func byID(id model.NodeID) func(*Node) bool {
	return func(n *Node) bool { return n.ID == id }
}

func isActive(n *Node) bool { return n.Active }

// locate returns the child-index path from n to the first descendant matching
// match, in depth-first, top-to-bottom order. n itself is never matched.
func locate(n *Node, match func(*Node) bool) ([]int, bool) {
	for i, c := range n.Children {
		if match(c) {
			return []int{i}, true
		}
		if p, ok := locate(c, match); ok {
			return append([]int{i}, p...), true
		}
	}
	return nil, false
}

// rewrite replaces the node at path with fn(node) and copies its ancestors. fn
// returning nil removes the node; returning its argument leaves n untouched.
func rewrite(n *Node, path []int, fn func(*Node) *Node) *Node {
	i := path[0]
	c := n.Children[i]
	var nc *Node
	if len(path) == 1 {
		nc = fn(c)
	} else {
		nc = rewrite(c, path[1:], fn)
	}
	if nc == c {
		return n
	}
	cp := *n
	cp.Children = slices.Clone(n.Children)
	if nc == nil {
		cp.Children = slices.Delete(cp.Children, i, i+1)
	} else {
		cp.Children[i] = nc
	}
	return &cp
}

func (t Tree) updateAt(path []int, fn func(*Node) *Node) Tree {
	t = t.ensure()
	var nr *Node
	if len(path) == 0 {
		nr = fn(t.root)
	} else {
		nr = rewrite(t.root, path, fn)
	}
	if nr == nil || nr == t.root {
		return t
	}
	t.root = nr
	return t
}

func (t Tree) updateFirst(match func(*Node) bool, fn func(*Node) *Node) Tree {
	p, ok := locate(t.Root(), match)
	if !ok {
		return t
	}
	return t.updateAt(p, fn)
}

func (t Tree) updateURL(url string, fn func(*Node) *Node) Tree {
	if url == "" {
		return t
	}
	return t.updateFirst(byURL(url), fn)
}

// insertAfter places nodes right after the first node with siblingURL, in the same
// container. Without such a sibling they go to the end of the top level.
func (t Tree) insertAfter(siblingURL string, nodes ...*Node) Tree {
	if siblingURL != "" {
		if p, ok := locate(t.Root(), byURL(siblingURL)); ok {
			idx := p[len(p)-1]
			return t.updateAt(p[:len(p)-1], func(n *Node) *Node {
				cp := *n
				cp.Children = slices.Insert(slices.Clone(n.Children), idx+1, nodes...)
				return &cp
			})
		}
	}
	return t.updateAt(nil, func(n *Node) *Node {
		cp := *n
		cp.Children = append(slices.Clone(n.Children), nodes...)
		return &cp
	})
}

func (t *Tree) allocID() model.NodeID {
	id := t.nextID
	t.nextID++
	return id
}

// children builds the nodes for a listing. Provisional nodes of the previous
// children that the listing does not mention are kept after the listed ones, since
// the store cannot know about them yet.
func (t *Tree) children(entries []model.Entry, prev []*Node) []*Node {
	out := make([]*Node, 0, len(entries))
	listed := make(map[string]bool, len(entries))
	for _, e := range entries {
		listed[e.URL] = true
		out = append(out, &Node{
			ID:   t.allocID(),
			URL:  e.URL,
			Name: e.Name,
			Kind: e.Kind,
		})
	}
	for _, n := range prev {
		if n.Provisional && !listed[n.URL] {
			out = append(out, n)
		}
	}
	return out
}

// clearActive drops the active flag. A stored script also loses its modified mark,
// since its unsaved edits go with the buffer.
func (t Tree) clearActive() Tree {
	return t.updateFirst(isActive, func(n *Node) *Node {
		cp := *n
		cp.Active = false
		if !n.Provisional {
			cp.Modified = false
		}
		return &cp
	})
}

// markActive re-attaches the active flag to the first leaf carrying the active url
// when no node holds it.
func (t Tree) markActive() Tree {
	if t.active == "" {
		return t
	}
	if _, ok := locate(t.Root(), isActive); ok {
		return t
	}
	return t.updateFirst(func(n *Node) bool {
		return n.URL == t.active && !n.IsContainer()
	}, func(n *Node) *Node {
		cp := *n
		cp.Active = true
		return &cp
	})
}

func setPending(p Pending) func(*Node) *Node {
	return func(n *Node) *Node {
		if n.Pending == p {
			return n
		}
		cp := *n
		cp.Pending = p
		return &cp
	}
}

func setLoading(v bool) func(*Node) *Node {
	return func(n *Node) *Node {
		if n.Loading == v || !n.IsContainer() {
			return n
		}
		cp := *n
		cp.Loading = v
		return &cp
	}
}

// rebase maps url from under oldPrefix to newPrefix. It reports false when url is
// neither oldPrefix nor below it.
func rebase(url, oldPrefix, newPrefix string) (string, bool) {
	if url == oldPrefix {
		return newPrefix, true
	}
	if rest, ok := strings.CutPrefix(url, strings.TrimRight(oldPrefix, "/")+"/"); ok {
		return strings.TrimRight(newPrefix, "/") + "/" + rest, true
	}
	return url, false
}
