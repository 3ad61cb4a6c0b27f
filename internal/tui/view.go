package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"scriptbench/internal/tree"
)

func (m explorerModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.confirm != nil {
		modal := renderConfirmModal(m.width, m.confirm.Message, m.confirm.Supporting, "Delete", "Cancel", m.confirmFocus)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}

	treeW, editorW, bodyH := m.dimensions()
	left := stylePane(m.pane == paneTree).Width(treeW).Height(bodyH).Render(m.renderTree(treeW, bodyH))
	right := stylePane(m.pane == paneEditor).Width(editorW).Height(bodyH).Render(m.renderEditor(editorW, bodyH))

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		m.renderStatus(),
		m.help.View(m.keys),
	)
}

func (m explorerModel) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Render("scriptbench")
	server := styleMuted().Render(m.opts.Server)
	return ansi.Truncate(title+"  "+server, m.width, "…")
}

func (m explorerModel) renderStatus() string {
	if m.renaming {
		return "Rename: " + m.prompt.View()
	}
	return ansi.Truncate(m.statusText(), m.width, "…")
}

func (m explorerModel) renderTree(w, h int) string {
	t := m.e.Tree()
	rows := t.Rows()
	if len(rows) == 0 {
		switch {
		case t.Loading():
			return m.spinner.View() + " loading…"
		case t.Loaded():
			return styleMuted().Render("no scripts")
		}
		return styleMuted().Render("not loaded (R to retry)")
	}

	// Keep the cursor in view.
	start := 0
	if m.cursor >= h {
		start = m.cursor - h + 1
	}
	end := min(len(rows), start+h)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(rows[i], i == m.cursor, w))
	}
	return strings.Join(lines, "\n")
}

func (m explorerModel) renderRow(r tree.Row, selected bool, w int) string {
	n := r.Node
	icon := "  "
	switch {
	case n.Loading:
		icon = m.spinner.View() + " "
	case n.IsContainer() && n.Toggled:
		icon = "▾ "
	case n.IsContainer():
		icon = "▸ "
	}

	name := n.Name
	if n.IsContainer() {
		name += "/"
	}
	if n.Modified {
		name += " ●"
	}
	if n.Pending != tree.PendingNone {
		name += " (" + string(n.Pending) + "…)"
	}
	line := ansi.Truncate(strings.Repeat("  ", r.Depth)+icon+name, w, "…")

	st := lipgloss.NewStyle()
	switch {
	case selected && m.pane == paneTree:
		st = styleSelected()
	case n.Active:
		st = styleActive()
	case n.Pending != tree.PendingNone:
		st = styleMuted()
	case n.Modified:
		st = styleModified()
	}
	if n.Provisional {
		st = st.Italic(true)
	}
	return st.Width(w).Render(line)
}

func (m explorerModel) renderEditor(w, h int) string {
	b := m.e.Buffer()
	header := styleMuted().Render("─")
	if b.Open() {
		header = ansi.Truncate(b.Resource, w, "…")
	}

	var body string
	switch {
	case !b.Open():
		body = styleMuted().Render("Select a script in the tree (enter), or add one (a).")
	case m.preview && isMarkdown(b.Resource):
		body = clipLines(renderMarkdown(b.Content, w), h-1)
	default:
		body = m.editor.View()
	}
	return header + "\n" + body
}

func clipLines(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
