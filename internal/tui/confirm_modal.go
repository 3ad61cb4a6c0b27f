package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

func modalBodyWidth(width int) int {
	w := width/2 - 4
	if w < 30 {
		w = 30
	}
	if w > 60 {
		w = 60
	}
	return w
}

func renderConfirmModal(width int, title, body, confirmLabel, cancelLabel string, focus confirmModalFocus) string {
	btn := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	btnActive := btn.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)

	confirm := btn.Render(confirmLabel)
	cancel := btn.Render(cancelLabel)
	if focus == confirmFocusConfirm {
		confirm = btnActive.Render(confirmLabel)
	} else {
		cancel = btnActive.Render(cancelLabel)
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel)

	bodyW := modalBodyWidth(width)
	help := styleMuted().Render(wordwrap.String("tab: focus   enter: select   y/n   esc: cancel", bodyW))

	content := strings.Join([]string{
		lipgloss.NewStyle().Bold(true).Render(wordwrap.String(title, bodyW)),
		"",
		wordwrap.String(body, bodyW),
		"",
		controls,
		"",
		help,
	}, "\n")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(1, 2).
		Render(content)
}
