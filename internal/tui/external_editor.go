package tui

import (
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type externalEditorDoneMsg struct {
	err error
}

func externalEditorName() string {
	if v := strings.TrimSpace(os.Getenv("VISUAL")); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("EDITOR")); v != "" {
		return v
	}
	return "vi"
}

// openExternalEditor hands the open script to $VISUAL/$EDITOR in a temp file that keeps
// the script's extension, so the editor picks the right syntax.
func (m *explorerModel) openExternalEditor() (tea.Cmd, error) {
	b := m.e.Buffer()
	if !b.Open() {
		return nil, fmt.Errorf("no script is open")
	}
	args := splitShellWords(externalEditorName())
	if len(args) == 0 {
		args = []string{"vi"}
	}

	f, err := os.CreateTemp("", "scriptbench-*"+path.Ext(b.Resource))
	if err != nil {
		return nil, err
	}
	p := f.Name()
	if _, err := f.WriteString(b.Content); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return nil, err
	}
	_ = f.Close()

	m.externalEditorPath = p
	m.externalEditorURL = b.Resource

	cmd := exec.Command(args[0], append(args[1:], p)...)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return externalEditorDoneMsg{err: err}
	}), nil
}

// applyExternalEditorResult reads the edited file back into the buffer, provided the
// same script is still open.
func (m *explorerModel) applyExternalEditorResult(msg externalEditorDoneMsg) {
	p, url := m.externalEditorPath, m.externalEditorURL
	m.externalEditorPath, m.externalEditorURL = "", ""
	if strings.TrimSpace(p) == "" {
		return
	}
	defer func() { _ = os.Remove(p) }()

	if msg.err != nil {
		m.showMinibuffer("Editor failed: " + msg.err.Error())
		return
	}
	b, err := os.ReadFile(p)
	if err != nil {
		m.showMinibuffer("Editor read failed: " + err.Error())
		return
	}
	if m.e.Buffer().Resource != url {
		m.showMinibuffer("Script changed while editing; edits dropped")
		return
	}
	after := string(b)
	if after == m.e.Buffer().Content {
		m.showMinibuffer(fmt.Sprintf("No changes from %s", externalEditorName()))
		return
	}
	_ = m.e.ChangeContent(after)
	m.syncEditor()
	m.showMinibuffer(fmt.Sprintf("Updated from %s (ctrl+s to save)", externalEditorName()))
}
