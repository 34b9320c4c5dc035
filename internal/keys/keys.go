// Package keys contains keybinding definitions.
package keys

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/zjrosen/uuidtrans/internal/config"
)

// TrayKeyMap defines the keybindings of the tray.
type TrayKeyMap struct {
	// Lookups on the clipboard
	SearchID   key.Binding
	SearchName key.Binding

	// Bulk replacement on the clipboard
	ReplaceIDs   key.Binding
	ReplaceNames key.Binding

	// Registry and display
	Rebuild    key.Binding
	ToggleType key.Binding

	// General
	Help key.Binding
	Quit key.Binding
}

// FromHotkeys builds the tray keymap from configured hotkeys. ctrl+c always
// quits in addition to the configured quit key.
func FromHotkeys(h config.HotkeyConfig) TrayKeyMap {
	quitKeys := []string{h.Quit}
	if h.Quit != "ctrl+c" {
		quitKeys = append(quitKeys, "ctrl+c")
	}

	return TrayKeyMap{
		SearchID: key.NewBinding(
			key.WithKeys(h.SearchID),
			key.WithHelp(h.SearchID, "id → name"),
		),
		SearchName: key.NewBinding(
			key.WithKeys(h.SearchName),
			key.WithHelp(h.SearchName, "name → id"),
		),
		ReplaceIDs: key.NewBinding(
			key.WithKeys(h.ReplaceIDs),
			key.WithHelp(h.ReplaceIDs, "replace ids"),
		),
		ReplaceNames: key.NewBinding(
			key.WithKeys(h.ReplaceNames),
			key.WithHelp(h.ReplaceNames, "replace names"),
		),
		Rebuild: key.NewBinding(
			key.WithKeys(h.Rebuild),
			key.WithHelp(h.Rebuild, "update registry"),
		),
		ToggleType: key.NewBinding(
			key.WithKeys(h.ToggleType),
			key.WithHelp(h.ToggleType, "toggle type"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys(quitKeys...),
			key.WithHelp(h.Quit, "quit"),
		),
	}
}

// DefaultTrayKeyMap returns the tray keymap for the default hotkeys.
func DefaultTrayKeyMap() TrayKeyMap {
	return FromHotkeys(config.DefaultHotkeys())
}

// ShortHelp returns keybindings for the mini help view.
func (k TrayKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SearchID, k.SearchName, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k TrayKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SearchID, k.SearchName},     // Lookups
		{k.ReplaceIDs, k.ReplaceNames}, // Replacement
		{k.Rebuild, k.ToggleType},      // Registry
		{k.Help, k.Quit},               // General
	}
}
