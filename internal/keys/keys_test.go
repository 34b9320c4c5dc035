package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/uuidtrans/internal/config"
)

var _ help.KeyMap = TrayKeyMap{}

func TestDefaultTrayKeyMap_KeyAssignments(t *testing.T) {
	km := DefaultTrayKeyMap()

	tests := []struct {
		name     string
		binding  key.Binding
		expected []string
	}{
		{"SearchID", km.SearchID, []string{"ctrl+f"}},
		{"SearchName", km.SearchName, []string{"ctrl+n"}},
		{"ReplaceIDs", km.ReplaceIDs, []string{"ctrl+r"}},
		{"ReplaceNames", km.ReplaceNames, []string{"ctrl+e"}},
		{"Rebuild", km.Rebuild, []string{"ctrl+u"}},
		{"ToggleType", km.ToggleType, []string{"ctrl+t"}},
		{"Quit also takes ctrl+c", km.Quit, []string{"q", "ctrl+c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.binding.Keys())
		})
	}
}

func TestFromHotkeys_CustomBindings(t *testing.T) {
	h := config.DefaultHotkeys()
	h.SearchID = "alt+i"
	h.Quit = "ctrl+c"

	km := FromHotkeys(h)

	require.Equal(t, []string{"alt+i"}, km.SearchID.Keys())
	require.Equal(t, "alt+i", km.SearchID.Help().Key)
	require.Equal(t, []string{"ctrl+c"}, km.Quit.Keys(), "ctrl+c is not bound twice")
}

func TestTrayKeyMap_MatchesKeyMsg(t *testing.T) {
	km := DefaultTrayKeyMap()

	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlF}, km.SearchID))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}, km.Quit))
	require.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlF}, km.SearchName))
}

func TestTrayKeyMap_HelpCoversEveryAction(t *testing.T) {
	km := DefaultTrayKeyMap()

	var count int
	for _, group := range km.FullHelp() {
		for _, b := range group {
			require.NotEmpty(t, b.Help().Desc)
			count++
		}
	}
	require.Equal(t, 8, count)
	require.NotEmpty(t, km.ShortHelp())
}
