package tui

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"scriptbench/internal/engine"
)

type Options struct {
	// Server is shown in the header.
	Server string
	// Theme is light|dark|auto.
	Theme string
	// Preview starts with markdown preview on.
	Preview bool
	// Restore, when set, is worked towards right after the first listing.
	Restore *engine.Snapshot
	Logger  *slog.Logger
}

// Run shows the explorer for e until the user quits and returns what is worth
// restoring next time.
func Run(e *engine.Engine, opts Options) (engine.Snapshot, error) {
	applyColorProfilePreference()
	applyThemePreference(opts.Theme)
	if opts.Logger != nil {
		opts.Logger.Info("tui start", "server", opts.Server, "restore", opts.Restore != nil)
	}

	m := newExplorerModel(e, opts)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return engine.Snapshot{}, err
	}
	return e.Snapshot(), nil
}
