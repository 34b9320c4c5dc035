package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		registry *Registry
		flag     string
		expected bool
	}{
		{
			name:     "default on without overrides",
			registry: New(nil),
			flag:     FlagNameSuggestions,
			expected: true,
		},
		{
			name:     "override turns default off",
			registry: New(map[string]bool{FlagParseCache: false}),
			flag:     FlagParseCache,
			expected: false,
		},
		{
			name:     "unknown flag returns false",
			registry: New(nil),
			flag:     "unknown-flag",
			expected: false,
		},
		{
			name:     "unknown flag from config is honored",
			registry: New(map[string]bool{"experimental": true}),
			flag:     "experimental",
			expected: true,
		},
		{
			name:     "nil registry returns false",
			registry: nil,
			flag:     FlagWatch,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.registry.Enabled(tt.flag))
		})
	}
}

func TestRegistry_All_ReturnsCopy(t *testing.T) {
	r := New(map[string]bool{FlagWatch: false})

	all := r.All()
	all[FlagWatch] = true
	all["new-flag"] = true

	require.False(t, r.Enabled(FlagWatch), "registry should not be affected by copy mutation")
	require.False(t, r.Enabled("new-flag"))
	require.Equal(t, map[string]bool{
		FlagNameSuggestions: true,
		FlagParseCache:      true,
		FlagWatch:           false,
	}, r.All())
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry
	require.Empty(t, r.All())
	require.Nil(t, r.Names())
}

func TestRegistry_Names(t *testing.T) {
	r := New(map[string]bool{"alpha": true})
	require.Equal(t, []string{"alpha", FlagNameSuggestions, FlagParseCache, FlagWatch}, r.Names())
}

func TestDefaults_ReturnsFreshMap(t *testing.T) {
	d := Defaults()
	d[FlagWatch] = false
	require.True(t, Defaults()[FlagWatch])
}
