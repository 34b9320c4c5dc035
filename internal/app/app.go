// Package app wires configuration, the registry and its consumers into one
// running application shared by the CLI, the tray and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zjrosen/uuidtrans/internal/clipboard"
	"github.com/zjrosen/uuidtrans/internal/config"
	"github.com/zjrosen/uuidtrans/internal/flags"
	"github.com/zjrosen/uuidtrans/internal/keys"
	"github.com/zjrosen/uuidtrans/internal/log"
	"github.com/zjrosen/uuidtrans/internal/pool"
	"github.com/zjrosen/uuidtrans/internal/pubsub"
	"github.com/zjrosen/uuidtrans/internal/registry"
	"github.com/zjrosen/uuidtrans/internal/replace"
	"github.com/zjrosen/uuidtrans/internal/search"
	"github.com/zjrosen/uuidtrans/internal/server"
	"github.com/zjrosen/uuidtrans/internal/tracing"
	"github.com/zjrosen/uuidtrans/internal/tray"
	"github.com/zjrosen/uuidtrans/internal/watcher"
	"github.com/zjrosen/uuidtrans/internal/workspace"
)

// ErrNoWorkspace is returned by Rebuild when no workspace is configured.
var ErrNoWorkspace = errors.New("no workspace configured; run: uuidtrans workspace:set <dir>")

// Options configure New.
type Options struct {
	Config config.Config
	// ConfigPath is where setting changes are saved. Empty disables saving.
	ConfigPath string
	// Clipboard defaults to the system clipboard.
	Clipboard clipboard.Clipboard
}

// App owns every long-lived component.
type App struct {
	cfg        config.Config
	configPath string

	flags     *flags.Registry
	provider  *tracing.Provider
	filter    *workspace.Filter
	parser    *workspace.Parser
	broker    *pubsub.Broker[registry.RebuildReport]
	registry  *registry.Registry
	engine    *search.Engine
	replacer  *replace.Replacer
	pool      *pool.Pool
	clipboard clipboard.Clipboard

	mu       sync.Mutex // guards showType and watcher
	showType bool
	watcher  *watcher.Watcher

	closeOnce sync.Once
}

// New validates the configuration and builds the application. Nothing is
// indexed until Rebuild.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	filter, err := workspace.NewFilter(cfg.Include, cfg.Exclude)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}

	ff := flags.New(cfg.Flags)
	tracer := provider.Tracer()
	broker := pubsub.NewBroker[registry.RebuildReport]()
	parser := workspace.NewParser(workspace.WithParseCache(ff.Enabled(flags.FlagParseCache)))
	reg := registry.New(parser,
		registry.WithTracer(tracer),
		registry.WithBroker(broker),
	)
	engine := search.New(reg, search.WithFlags(ff), search.WithTracer(tracer))

	cb := opts.Clipboard
	if cb == nil {
		cb = clipboard.System{}
	}

	a := &App{
		cfg:        cfg,
		configPath: opts.ConfigPath,
		flags:      ff,
		provider:   provider,
		filter:     filter,
		parser:     parser,
		broker:     broker,
		registry:   reg,
		engine:     engine,
		replacer:   replace.New(engine, replace.WithTracer(tracer)),
		pool:       pool.New(pool.Config{Workers: cfg.Pool.Workers}),
		clipboard:  cb,
		showType:   cfg.ShowType,
	}
	log.Debug(log.CatConfig, "Application ready",
		"workspace", cfg.Workspace,
		"workers", a.pool.Workers(),
		"flags", ff.Names())
	return a, nil
}

// Engine returns the search engine.
func (a *App) Engine() *search.Engine { return a.engine }

// Replacer returns the bulk replacer.
func (a *App) Replacer() *replace.Replacer { return a.replacer }

// Registry returns the element registry.
func (a *App) Registry() *registry.Registry { return a.registry }

// Clipboard returns the clipboard used by triggers.
func (a *App) Clipboard() clipboard.Clipboard { return a.clipboard }

// Workspace returns the configured workspace directory.
func (a *App) Workspace() string { return a.cfg.Workspace }

// ShowType returns the current show-type setting.
func (a *App) ShowType() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.showType
}

// SetShowType changes the show-type setting and saves it when a config path
// is known.
func (a *App) SetShowType(v bool) error {
	a.mu.Lock()
	a.showType = v
	a.mu.Unlock()

	if a.configPath == "" {
		return nil
	}
	return config.SaveShowType(a.configPath, v)
}

// Rebuild discovers the workspace files and rebuilds the registry from them.
func (a *App) Rebuild(ctx context.Context) (registry.RebuildReport, error) {
	if a.cfg.Workspace == "" {
		return registry.RebuildReport{}, ErrNoWorkspace
	}
	files, err := workspace.Discover(ctx, a.cfg.Workspace, a.filter)
	if err != nil {
		return registry.RebuildReport{}, err
	}
	return a.registry.Rebuild(ctx, files)
}

// Events subscribes to rebuild events until ctx is done.
func (a *App) Events(ctx context.Context) <-chan pubsub.Event[registry.RebuildReport] {
	return a.registry.Events(ctx)
}

// StartWatcher rebuilds the registry on the worker pool whenever workspace
// files change. It is a no-op when watching is disabled by config or flag.
func (a *App) StartWatcher(ctx context.Context) error {
	if !a.cfg.Watch.Enabled || !a.flags.Enabled(flags.FlagWatch) {
		log.Debug(log.CatWatcher, "Watching disabled")
		return nil
	}
	if a.cfg.Workspace == "" {
		return ErrNoWorkspace
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.watcher != nil {
		return nil
	}

	w, err := watcher.New(watcher.Config{
		Root:        a.cfg.Workspace,
		Filter:      a.filter,
		DebounceDur: a.cfg.Watch.Debounce,
	})
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return err
	}
	a.watcher = w

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				a.submitRebuild(ctx)
			}
		}
	}()
	return nil
}

func (a *App) submitRebuild(ctx context.Context) {
	err := a.pool.Submit(ctx, "rebuild", func(jobCtx context.Context) {
		if _, err := a.Rebuild(jobCtx); err != nil {
			log.ErrorErr(log.CatWatcher, "Rebuild after change failed", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.ErrorErr(log.CatWatcher, "Could not schedule rebuild", err)
	}
}

// TrayDeps returns the collaborators for the tray. Events are subscribed
// for the lifetime of ctx.
func (a *App) TrayDeps(ctx context.Context) tray.Deps {
	return tray.Deps{
		Engine:       a.engine,
		Replacer:     a.replacer,
		Clipboard:    a.clipboard,
		Pool:         a.pool,
		Rebuild:      a.Rebuild,
		Events:       a.Events(ctx),
		SaveShowType: a.SetShowType,
		Workspace:    a.cfg.Workspace,
		ShowType:     a.ShowType(),
		KeyMap:       keys.FromHotkeys(a.cfg.Hotkeys),
	}
}

// Server returns the HTTP API bound to this application.
func (a *App) Server() *server.Server {
	return server.New(server.Config{
		Engine:   a.engine,
		Replacer: a.replacer,
		Rebuild:  a.Rebuild,
		ShowType: a.ShowType,
	})
}

// ParseCacheStats reports parse cache effectiveness.
func (a *App) ParseCacheStats() (hits, misses uint64) {
	s := a.parser.CacheStats()
	return s.Hits, s.Misses
}

// Close stops the watcher, drains the pool and flushes traces.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		w := a.watcher
		a.mu.Unlock()
		if w != nil {
			if err := w.Stop(); err != nil {
				log.ErrorErr(log.CatWatcher, "Failed to stop watcher", err)
			}
		}
		a.pool.Close()
		a.registry.Close()
		if err := a.provider.Shutdown(context.Background()); err != nil {
			log.ErrorErr(log.CatConfig, "Failed to flush traces", err)
		}
	})
}
