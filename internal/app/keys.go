package app

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/adminui/sysdash/internal/views/help"
)

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Enter       key.Binding
	Tab         key.Binding
	Screen1     key.Binding
	Screen2     key.Binding
	Screen3     key.Binding
	Escape      key.Binding
	Quit        key.Binding
	Debug       key.Binding
	Help        key.Binding
	Reload      key.Binding
	AutoRefresh key.Binding
	Sort        key.Binding
	User        key.Binding
	MinCPU      key.Binding
	MinMem      key.Binding
	Limit       key.Binding
	PrevService key.Binding
	NextService key.Binding
	Restart     key.Binding
	Confirm     key.Binding
	Logout      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "detail / submit"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Screen1: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "processes"),
		),
		Screen2: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "system"),
		),
		Screen3: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "logs"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close / cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Debug: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "event log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "keys"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		AutoRefresh: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "auto-refresh"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		User: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "user"),
		),
		MinCPU: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "min cpu"),
		),
		MinMem: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "min mem"),
		),
		Limit: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "limit"),
		),
		PrevService: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev service"),
		),
		NextService: key.NewBinding(
			key.WithKeys("right", "tab"),
			key.WithHelp("→/tab", "next service"),
		),
		Restart: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "restart service"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
	}
}

// HelpSections groups the bindings for the key reference overlay.
func (k KeyMap) HelpSections() []help.Section {
	return []help.Section{
		{Title: "General", Bindings: []key.Binding{
			k.Screen1, k.Screen2, k.Screen3, k.Debug, k.Help, k.Logout, k.Quit,
		}},
		{Title: "Processes", Bindings: []key.Binding{
			k.Up, k.Down, k.Enter, k.Reload, k.AutoRefresh, k.Sort, k.User, k.MinCPU, k.MinMem, k.Limit,
		}},
		{Title: "Logs", Bindings: []key.Binding{
			k.PrevService, k.NextService, k.Restart,
		}},
	}
}
