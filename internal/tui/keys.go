package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	Collapse  key.Binding
	Add       key.Binding
	Remove    key.Binding
	Duplicate key.Binding
	NewFolder key.Binding
	Rename    key.Binding
	Refresh   key.Binding
	Save      key.Binding
	CopyURL   key.Binding
	Edit      key.Binding
	Preview   key.Binding
	Focus     key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:      key.NewBinding(key.WithKeys("enter", "right", "l", " "), key.WithHelp("enter", "open")),
		Collapse:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Remove:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		Duplicate: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "duplicate")),
		NewFolder: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new folder")),
		Rename:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		Refresh:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
		Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		CopyURL:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy url")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "$EDITOR")),
		Preview:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview")),
		Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp and FullHelp satisfy help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Add, k.Remove, k.Duplicate, k.NewFolder, k.Rename, k.Save, k.Focus, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Collapse},
		{k.Add, k.Remove, k.Duplicate, k.NewFolder, k.Rename},
		{k.Refresh, k.Save, k.CopyURL, k.Edit, k.Preview},
		{k.Focus, k.Quit},
	}
}
