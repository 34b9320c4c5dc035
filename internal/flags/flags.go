// Package flags holds the boolean feature switches read from the `flags`
// config section. A Registry is read-only once built.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/uuidtrans/internal/log"
)

const (
	// FlagNameSuggestions adds "did you mean" names to empty name lookups.
	FlagNameSuggestions = "name-suggestions"

	// FlagParseCache reuses parsed elements for workspace files whose content
	// hash is unchanged since the last rebuild.
	FlagParseCache = "parse-cache"

	// FlagWatch rebuilds the registry when workspace files change.
	FlagWatch = "watch"
)

// Defaults returns the value of every known flag when config is silent.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagNameSuggestions: true,
		FlagParseCache:      true,
		FlagWatch:           true,
	}
}

// Registry holds feature flag state.
type Registry struct {
	flags map[string]bool
}

// New layers overrides on top of Defaults. Names that are not known flags are
// kept (so All reports them) but logged.
func New(overrides map[string]bool) *Registry {
	merged := Defaults()
	for name, value := range overrides {
		if _, known := merged[name]; !known {
			log.Warn(log.CatConfig, "Unknown feature flag in config", "flag", name)
		}
		merged[name] = value
	}
	r := &Registry{flags: merged}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(merged), "flags", r.All())
	return r
}

// Enabled reports whether name is on. Unknown names and a nil Registry are off.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	return r.flags[name]
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return map[string]bool{}
	}
	return maps.Clone(r.flags)
}

// Names returns the flag names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.flags))
}
