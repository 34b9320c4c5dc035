// Package config provides configuration types, defaults and validation for
// uuidtrans.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/zjrosen/uuidtrans/internal/log"
	"github.com/zjrosen/uuidtrans/internal/tracing"
)

// Config holds all configuration options for uuidtrans.
type Config struct {
	Workspace string          `mapstructure:"workspace"` // last-used workspace directory
	ShowType  bool            `mapstructure:"show_type"` // prefix results with "<type>/"
	Include   []string        `mapstructure:"include"`   // doublestar globs relative to the workspace
	Exclude   []string        `mapstructure:"exclude"`
	Hotkeys   HotkeyConfig    `mapstructure:"hotkeys"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Pool      PoolConfig      `mapstructure:"pool"`
	Server    ServerConfig    `mapstructure:"server"`
	Tracing   tracing.Config  `mapstructure:"tracing"`
	Flags     map[string]bool `mapstructure:"flags"`
}

// HotkeyConfig maps tray actions to key strings ("ctrl+f", "q", ...).
type HotkeyConfig struct {
	SearchID     string `mapstructure:"search_id"`
	SearchName   string `mapstructure:"search_name"`
	ReplaceIDs   string `mapstructure:"replace_ids"`
	ReplaceNames string `mapstructure:"replace_names"`
	Rebuild      string `mapstructure:"rebuild"`
	ToggleType   string `mapstructure:"toggle_type"`
	Quit         string `mapstructure:"quit"`
}

// Bindings returns the hotkeys keyed by their config name, for validation.
func (h HotkeyConfig) Bindings() map[string]string {
	return map[string]string{
		"search_id":     h.SearchID,
		"search_name":   h.SearchName,
		"replace_ids":   h.ReplaceIDs,
		"replace_names": h.ReplaceNames,
		"rebuild":       h.Rebuild,
		"toggle_type":   h.ToggleType,
		"quit":          h.Quit,
	}
}

// WatchConfig controls rebuild-on-change.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// PoolConfig sizes the trigger worker pool.
type PoolConfig struct {
	Workers int `mapstructure:"workers"`
}

// ServerConfig configures `uuidtrans serve`.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// MaxWorkers bounds pool.workers.
const MaxWorkers = 64

// LocalConfigPath is the per-project config location, relative to the
// working directory.
const LocalConfigPath = ".uuidtrans/config.yaml"

// DefaultConfigPath returns ~/.config/uuidtrans/config.yaml, or "" if the
// home directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "uuidtrans", "config.yaml")
}

// DefaultTracesFilePath returns ~/.config/uuidtrans/traces/traces.jsonl, or
// "" if the home directory is unknown.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "uuidtrans", "traces", "traces.jsonl")
}

// DefaultHotkeys returns the tray key bindings.
func DefaultHotkeys() HotkeyConfig {
	return HotkeyConfig{
		SearchID:     "ctrl+f",
		SearchName:   "ctrl+n",
		ReplaceIDs:   "ctrl+r",
		ReplaceNames: "ctrl+e",
		Rebuild:      "ctrl+u",
		ToggleType:   "ctrl+t",
		Quit:         "q",
	}
}

// Defaults returns a Config with default values.
func Defaults() Config {
	trace := tracing.DefaultConfig()
	trace.FilePath = DefaultTracesFilePath()

	return Config{
		ShowType: false,
		Include:  []string{"**/*.yaml", "**/*.yml", "**/*.json", "**/*.xml"},
		Exclude:  []string{"**/.git/**", "**/node_modules/**", "**/.uuidtrans/**"},
		Hotkeys:  DefaultHotkeys(),
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 500 * time.Millisecond,
		},
		Pool:    PoolConfig{Workers: 2},
		Server:  ServerConfig{Addr: "127.0.0.1:7823"},
		Tracing: trace,
	}
}

// Validate checks the whole config.
func Validate(c Config) error {
	if err := ValidateHotkeys(c.Hotkeys); err != nil {
		return err
	}
	if err := ValidatePatterns("include", c.Include); err != nil {
		return err
	}
	if err := ValidatePatterns("exclude", c.Exclude); err != nil {
		return err
	}
	if err := ValidatePool(c.Pool); err != nil {
		return err
	}
	if err := ValidateWatch(c.Watch); err != nil {
		return err
	}
	if err := ValidateServer(c.Server); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateHotkeys requires every hotkey to be set and distinct. "ctrl+c"
// is reserved as the always-on quit key.
func ValidateHotkeys(h HotkeyConfig) error {
	seen := make(map[string]string)
	for _, name := range []string{"search_id", "search_name", "replace_ids", "replace_names", "rebuild", "toggle_type", "quit"} {
		key := h.Bindings()[name]
		if key == "" {
			return fmt.Errorf("hotkeys.%s must not be empty", name)
		}
		if key == "ctrl+c" && name != "quit" {
			return fmt.Errorf("hotkeys.%s: ctrl+c is reserved for quit", name)
		}
		if other, dup := seen[key]; dup {
			return fmt.Errorf("hotkeys.%s: %q is already bound to %s", name, key, other)
		}
		seen[key] = name
	}
	return nil
}

// ValidatePatterns checks doublestar glob syntax.
func ValidatePatterns(field string, patterns []string) error {
	for i, p := range patterns {
		if p == "" || !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%s[%d]: invalid glob pattern %q", field, i, p)
		}
	}
	return nil
}

// ValidatePool checks the worker count. Zero means the default.
func ValidatePool(p PoolConfig) error {
	if p.Workers < 0 || p.Workers > MaxWorkers {
		return fmt.Errorf("pool.workers must be between 0 and %d, got %d", MaxWorkers, p.Workers)
	}
	return nil
}

// ValidateWatch rejects a negative debounce.
func ValidateWatch(w WatchConfig) error {
	if w.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", w.Debounce)
	}
	return nil
}

// ValidateServer checks that addr is host:port.
func ValidateServer(s ServerConfig) error {
	if s.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(s.Addr); err != nil {
		return fmt.Errorf("server.addr: %w", err)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Empty values use defaults.
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	switch t.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	if t.Enabled {
		if t.Exporter == "file" && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == "otlp" && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as YAML with comments.
func DefaultConfigTemplate() string {
	return `# uuidtrans configuration

# Workspace directory to index (set with: uuidtrans workspace:set <dir>)
# workspace: /path/to/workspace

# Prefix lookup results with the element type, e.g. "Service/Foo"
show_type: false

# Files to index, as doublestar globs relative to the workspace
include:
  - "**/*.yaml"
  - "**/*.yml"
  - "**/*.json"
  - "**/*.xml"
exclude:
  - "**/.git/**"
  - "**/node_modules/**"
  - "**/.uuidtrans/**"

# Tray hotkeys (ctrl+c always quits)
hotkeys:
  search_id: ctrl+f
  search_name: ctrl+n
  replace_ids: ctrl+r
  replace_names: ctrl+e
  rebuild: ctrl+u
  toggle_type: ctrl+t
  quit: q

# Rebuild the index when workspace files change
watch:
  enabled: true
  debounce: 500ms

# Worker goroutines for tray and watcher triggers
pool:
  workers: 2

# Address for: uuidtrans serve
server:
  addr: 127.0.0.1:7823

# Feature flags
# flags:
#   name-suggestions: true   # "did you mean" names for unknown names
#   parse-cache: true        # reuse parses of unchanged files
#   watch: true

# Tracing (OpenTelemetry)
# tracing:
#   enabled: true
#   exporter: file           # none | file | stdout | otlp
#   file_path: ~/.config/uuidtrans/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at configPath from the template,
// creating the parent directory.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
