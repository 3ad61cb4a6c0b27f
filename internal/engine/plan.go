package engine

import (
	"maps"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"scriptbench/internal/action"
	"scriptbench/internal/resource"
	"scriptbench/internal/tree"
)

// Snapshot is the part of the explorer worth keeping between runs.
type Snapshot struct {
	Expanded []string `json:"expanded,omitempty"`
	Active   string   `json:"active,omitempty"`
	Draft    *Draft   `json:"draft,omitempty"`
}

// Draft is unsaved text for a stored script.
type Draft struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// plan is a target state reached step by step as listings arrive: containers to
// expand once they show up, a script to open, and text to put back into it.
type plan struct {
	expand    map[string]bool
	all       bool
	maxDepth  int
	selectURL string
	draft     *Draft
	// failed are containers whose listing failed during ExpandAll; they are not
	// retried.
	failed []string
}

// Snapshot captures the expanded containers, the open script and its unsaved text.
// Scripts that were never stored are left out.
func (e *Engine) Snapshot() Snapshot {
	var s Snapshot
	tree.Walk(e.state.Tree.Root(), func(n *tree.Node, _ int) bool {
		if n.URL == "" {
			return true
		}
		if !n.IsContainer() || !n.Toggled {
			return false
		}
		s.Expanded = append(s.Expanded, n.URL)
		return true
	})
	b := e.state.Buffer
	if !b.Open() {
		return s
	}
	if n := e.state.Tree.Find(b.Resource); n != nil && n.Provisional {
		return s
	}
	s.Active = b.Resource
	if b.Dirty {
		s.Draft = &Draft{URL: b.Resource, Content: b.Content}
	}
	return s
}

// Restore works towards s: it lists the top level if needed, expands the saved
// containers as their parents load, reopens the saved script and reapplies its draft.
func (e *Engine) Restore(s Snapshot) tea.Cmd {
	p := &plan{expand: map[string]bool{}, selectURL: s.Active}
	for _, u := range s.Expanded {
		p.expand[u] = true
	}
	if s.Draft != nil && s.Draft.URL == s.Active {
		d := *s.Draft
		p.draft = &d
	}
	e.plan = p
	return e.advance()
}

// Reveal expands the containers leading to url and opens it: a script is selected, a
// container is expanded.
func (e *Engine) Reveal(url string) tea.Cmd {
	root := e.client.RootURL()
	p := &plan{expand: map[string]bool{}, selectURL: url}
	if url == "" || url == root {
		p.selectURL = ""
	}
	for u := resource.ParentURL(url); resource.IsUnder(u, root); u = resource.ParentURL(u) {
		p.expand[u] = true
	}
	e.plan = p
	return e.advance()
}

// ExpandAll expands every container down to maxDepth levels below the top (0 for no
// limit), listing each as it appears.
func (e *Engine) ExpandAll(maxDepth int) tea.Cmd {
	e.plan = &plan{expand: map[string]bool{}, all: true, maxDepth: maxDepth}
	return e.advance()
}

// Planning reports whether a Restore, Reveal or ExpandAll is still in progress.
func (e *Engine) Planning() bool { return e.plan != nil }

func (e *Engine) advance() tea.Cmd {
	p := e.plan
	if p == nil {
		return nil
	}
	t := e.state.Tree
	if !t.Loaded() {
		if t.Loading() {
			return nil
		}
		return e.LoadScripts()
	}

	var cmds []tea.Cmd
	if p.all {
		tree.Walk(t.Root(), func(n *tree.Node, depth int) bool {
			if !n.IsContainer() {
				return false
			}
			if n.URL != "" && (p.maxDepth <= 0 || depth <= p.maxDepth) && !n.Loaded && !slices.Contains(p.failed, n.URL) {
				p.expand[n.URL] = true
			}
			return p.maxDepth <= 0 || depth < p.maxDepth
		})
	}

	if p.selectURL != "" {
		if n := t.Find(p.selectURL); n != nil {
			if n.IsContainer() {
				p.expand[n.URL] = true
			} else if cmd, err := e.Select(n.URL); err == nil {
				cmds = append(cmds, cmd)
			}
			p.selectURL = ""
		}
	}

	for _, u := range slices.Sorted(maps.Keys(p.expand)) {
		n := e.state.Tree.Find(u)
		if n == nil {
			continue
		}
		if !n.IsContainer() {
			delete(p.expand, u)
			continue
		}
		if !n.Toggled {
			cmds = append(cmds, e.Toggle(n.ID, true))
			n = e.state.Tree.Find(u)
		}
		switch {
		case n.Loaded:
			delete(p.expand, u)
		case !n.Loading:
			cmds = append(cmds, e.readDir(u))
		}
	}

	cmd := tea.Batch(cmds...)
	if p.done() || (cmd == nil && !e.busy()) {
		if !p.done() {
			e.logger.Debug("plan abandoned", "select", p.selectURL, "expand", len(p.expand))
		}
		e.plan = nil
	}
	return cmd
}

func (p *plan) done() bool {
	return len(p.expand) == 0 && p.selectURL == "" && p.draft == nil
}

// busy reports whether a listing or a read the plan may be waiting on is in flight.
func (e *Engine) busy() bool {
	if e.state.Buffer.Busy() {
		return true
	}
	loading := false
	tree.Walk(e.state.Tree.Root(), func(n *tree.Node, _ int) bool {
		if n.Loading {
			loading = true
		}
		return !loading
	})
	return loading
}

// applyDraft puts the planned draft back into the buffer once its script was read.
func (e *Engine) applyDraft(url string) tea.Cmd {
	p := e.plan
	if p == nil || p.draft == nil || p.draft.URL != url {
		return nil
	}
	d := p.draft
	p.draft = nil
	if b := e.state.Buffer; b.Resource == url && b.Content != d.Content {
		e.dispatch(action.ContentChanged{URL: url, Value: d.Content})
	}
	return nil
}
