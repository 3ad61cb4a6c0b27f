package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"scriptbench/internal/action"
	"scriptbench/internal/engine"
	"scriptbench/internal/model"
	"scriptbench/internal/tree"
)

type pane int

const (
	paneTree pane = iota
	paneEditor
)

// explorerModel renders the engine's state; every change goes through the engine.
type explorerModel struct {
	e    *engine.Engine
	opts Options
	keys keyMap
	help help.Model

	width  int
	height int
	pane   pane

	// cursorID follows a node across listings; cursor is its row index.
	cursor   int
	cursorID model.NodeID

	editor  textarea.Model
	spinner spinner.Model

	// renaming is set while the name prompt is open for renameURL.
	renaming  bool
	renameURL string
	prompt    textinput.Model

	confirm      *engine.Confirmation
	confirmFocus confirmModalFocus

	preview    bool
	minibuffer string

	externalEditorPath string
	externalEditorURL  string
}

func newExplorerModel(e *engine.Engine, opts Options) explorerModel {
	m := explorerModel{
		e:       e,
		opts:    opts,
		keys:    defaultKeyMap(),
		help:    help.New(),
		preview: opts.Preview,
	}

	m.editor = textarea.New()
	m.editor.Placeholder = "Select a script…"
	m.editor.CharLimit = 0
	m.editor.ShowLineNumbers = true
	m.editor.SetWidth(72)
	m.editor.SetHeight(20)

	m.prompt = textinput.New()
	m.prompt.Placeholder = "Name"
	m.prompt.CharLimit = 200
	m.prompt.Width = 40

	m.spinner = spinner.New(spinner.WithSpinner(spinner.MiniDot))
	return m
}

func (m explorerModel) Init() tea.Cmd {
	var start tea.Cmd
	if m.opts.Restore != nil {
		start = m.e.Restore(*m.opts.Restore)
	} else {
		start = m.e.LoadScripts()
	}
	return tea.Batch(start, m.spinner.Tick)
}

func (m explorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case action.Action:
		cmd := m.e.Update(msg)
		if _, ok := msg.(action.DuplicateSuccess); ok {
			m.followActive()
		}
		m.afterEngine()
		return m, cmd

	case engine.ConfirmMsg:
		m.confirm = msg.Confirmation
		m.confirmFocus = confirmFocusCancel
		return m, nil

	case externalEditorDoneMsg:
		m.applyExternalEditorResult(msg)
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	// Cursor blinks and other component messages.
	var cmd tea.Cmd
	if m.renaming {
		m.prompt, cmd = m.prompt.Update(msg)
	} else if m.pane == paneEditor {
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m explorerModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		return m.updateConfirm(msg)
	}
	if m.renaming {
		return m.updatePrompt(msg)
	}
	m.minibuffer = ""
	m.e.ClearFailure()

	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.Save):
		cmd, err := m.e.Save()
		if err != nil {
			m.showMinibuffer(err.Error())
		}
		m.afterEngine()
		return m, cmd
	case key.Matches(msg, m.keys.Focus):
		return m, m.switchPane()
	}

	if m.pane == paneEditor {
		return m.updateEditor(msg)
	}
	return m.updateTree(msg)
}

func (m explorerModel) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.e.Tree().Rows()
	cur := m.current(rows)

	var cmd tea.Cmd
	var err error
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.move(rows, -1)
	case key.Matches(msg, m.keys.Down):
		m.move(rows, 1)

	case key.Matches(msg, m.keys.Open):
		if cur == nil {
			return m, nil
		}
		if cur.IsContainer() {
			cmd = m.e.Toggle(cur.ID, !cur.Toggled)
		} else {
			cmd, err = m.e.Select(cur.URL)
		}

	case key.Matches(msg, m.keys.Collapse):
		if cur == nil {
			return m, nil
		}
		if cur.IsContainer() && cur.Toggled {
			cmd = m.e.Toggle(cur.ID, false)
		} else if p := m.e.Tree().ParentOf(cur.URL); p != nil && p.URL != "" {
			m.cursorID = p.ID
		}

	case key.Matches(msg, m.keys.Add):
		cmd, err = m.e.InvokeTool(action.ToolAdd)
		if err == nil {
			m.followActive()
			if n := m.e.Tree().Active(); n != nil {
				cmd = tea.Batch(cmd, m.startRename(n))
			}
		}
	case key.Matches(msg, m.keys.Remove):
		cmd, err = m.e.InvokeTool(action.ToolRemove)
	case key.Matches(msg, m.keys.Duplicate):
		cmd, err = m.e.InvokeTool(action.ToolDuplicate)
	case key.Matches(msg, m.keys.NewFolder):
		cmd, err = m.e.InvokeTool(action.ToolNewFolder)

	case key.Matches(msg, m.keys.Rename):
		if cur != nil {
			cmd = m.startRename(cur)
		}

	case key.Matches(msg, m.keys.Refresh):
		cmd = m.e.Refresh(m.refreshTarget(cur))

	case key.Matches(msg, m.keys.CopyURL):
		if cur == nil {
			return m, nil
		}
		if err := copyToClipboard(cur.URL); err != nil {
			m.showMinibuffer("Copy failed: " + err.Error())
		} else {
			m.showMinibuffer("Copied " + cur.URL)
		}
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		cmd, err = m.openExternalEditor()

	case key.Matches(msg, m.keys.Preview):
		m.preview = !m.preview
		return m, nil
	}

	if err != nil {
		m.showMinibuffer(err.Error())
	}
	m.afterEngine()
	return m, cmd
}

func (m explorerModel) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return m, m.switchPane()
	}
	if !m.e.Buffer().Open() {
		return m, nil
	}
	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if v := m.editor.Value(); v != before {
		if err := m.e.ChangeContent(v); err != nil {
			m.showMinibuffer(err.Error())
		}
		m.afterEngine()
	}
	return m, cmd
}

func (m explorerModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		url, name := m.renameURL, strings.TrimSpace(m.prompt.Value())
		m.closePrompt()
		cmd, err := m.e.Rename(url, name)
		if err != nil {
			m.showMinibuffer(err.Error())
		}
		m.afterEngine()
		return m, cmd
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m explorerModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var ok bool
	switch msg.String() {
	case "tab", "shift+tab", "left", "right", "h", "l":
		if m.confirmFocus == confirmFocusConfirm {
			m.confirmFocus = confirmFocusCancel
		} else {
			m.confirmFocus = confirmFocusConfirm
		}
		return m, nil
	case "y":
		ok = true
	case "n", "esc", "ctrl+g":
		ok = false
	case "enter":
		ok = m.confirmFocus == confirmFocusConfirm
	default:
		return m, nil
	}
	c := m.confirm
	m.confirm = nil
	cmd := c.Resolve(ok)
	m.afterEngine()
	return m, cmd
}

func (m *explorerModel) startRename(n *tree.Node) tea.Cmd {
	m.renaming = true
	m.renameURL = n.URL
	m.prompt.SetValue(n.Name)
	m.prompt.CursorEnd()
	return m.prompt.Focus()
}

func (m *explorerModel) closePrompt() {
	m.renaming = false
	m.renameURL = ""
	m.prompt.Blur()
	m.prompt.SetValue("")
}

func (m *explorerModel) switchPane() tea.Cmd {
	if m.pane == paneTree {
		m.pane = paneEditor
		return m.editor.Focus()
	}
	m.pane = paneTree
	m.editor.Blur()
	return nil
}

// refreshTarget is the container to list again for cur: itself, or the one holding
// it. "" means the top level.
func (m *explorerModel) refreshTarget(cur *tree.Node) string {
	if cur == nil {
		return ""
	}
	if cur.IsContainer() {
		return cur.URL
	}
	if p := m.e.Tree().ParentOf(cur.URL); p != nil {
		return p.URL
	}
	return ""
}

// afterEngine brings the view-side state in line with the engine after a dispatch.
func (m *explorerModel) afterEngine() {
	m.syncEditor()
	m.syncCursor()
}

func (m *explorerModel) syncEditor() {
	if b := m.e.Buffer(); m.editor.Value() != b.Content {
		m.editor.SetValue(b.Content)
	}
}

func (m *explorerModel) syncCursor() {
	rows := m.e.Tree().Rows()
	if len(rows) == 0 {
		m.cursor, m.cursorID = 0, 0
		return
	}
	for i, r := range rows {
		if r.Node.ID == m.cursorID {
			m.cursor = i
			return
		}
	}
	m.cursor = max(0, min(m.cursor, len(rows)-1))
	m.cursorID = rows[m.cursor].Node.ID
}

func (m *explorerModel) followActive() {
	if n := m.e.Tree().Active(); n != nil {
		m.cursorID = n.ID
	}
}

func (m *explorerModel) move(rows []tree.Row, delta int) {
	if len(rows) == 0 {
		return
	}
	m.cursor = max(0, min(m.cursor+delta, len(rows)-1))
	m.cursorID = rows[m.cursor].Node.ID
}

func (m explorerModel) current(rows []tree.Row) *tree.Node {
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil
	}
	return rows[m.cursor].Node
}

func (m *explorerModel) showMinibuffer(s string) {
	m.minibuffer = s
}

func (m *explorerModel) layout() {
	_, editorW, bodyH := m.dimensions()
	m.editor.SetWidth(editorW)
	m.editor.SetHeight(max(1, bodyH-1))
	m.help.Width = m.width
}

// dimensions are the inner sizes of the two panes. Borders take one cell per side;
// the header, status and help lines take three rows.
func (m explorerModel) dimensions() (treeW, editorW, bodyH int) {
	treeW = max(24, min(m.width/3, 48))
	editorW = max(10, m.width-treeW-4)
	bodyH = max(3, m.height-5)
	return treeW, editorW, bodyH
}

func (m explorerModel) statusText() string {
	if f := m.e.State().Failure; f != nil {
		return styleError().Render(fmt.Sprintf("✗ %s", f.Error()))
	}
	if m.minibuffer != "" {
		return m.minibuffer
	}
	b := m.e.Buffer()
	switch {
	case !b.Open():
		return styleMuted().Render("no script open")
	case b.Busy():
		return m.spinner.View() + " " + string(b.Status) + " " + b.Resource
	case b.Dirty:
		return styleModified().Render("modified") + " " + b.Resource
	}
	return styleMuted().Render(b.Resource)
}
