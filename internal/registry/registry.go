// Package registry owns the element index. A Registry holds one immutable
// Snapshot at a time; Rebuild parses the workspace into a fresh snapshot and
// publishes it with a single atomic store, so lookups never block and never
// observe a half-built index.
package registry

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/uuidtrans/internal/element"
	"github.com/zjrosen/uuidtrans/internal/log"
	"github.com/zjrosen/uuidtrans/internal/pubsub"
	"github.com/zjrosen/uuidtrans/internal/tracing"
)

// ParseResult is what a Parser extracts from one file.
type ParseResult struct {
	Elements []element.Element
	// Skipped holds one error per malformed entry that was left out.
	Skipped []error
}

// Parser turns one workspace file into elements.
type Parser interface {
	Parse(ctx context.Context, path string) (ParseResult, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(ctx context.Context, path string) (ParseResult, error)

// Parse calls f.
func (f ParserFunc) Parse(ctx context.Context, path string) (ParseResult, error) {
	return f(ctx, path)
}

// RebuildReport summarizes one completed rebuild.
type RebuildReport struct {
	Version  uint64
	Files    int
	Elements int
	Warnings []IntegrityWarning
	Duration time.Duration
}

// Registry publishes snapshots built from parsed workspace files.
type Registry struct {
	parser      Parser
	current     atomic.Pointer[Snapshot]
	mu          sync.Mutex // serializes Rebuild
	version     uint64     // guarded by mu
	broker      *pubsub.Broker[RebuildReport]
	tracer      trace.Tracer
	parallelism int
}

// Option configures a Registry.
type Option func(*Registry)

// WithTracer sets the tracer used for rebuild spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithParallelism bounds how many files are parsed at once.
func WithParallelism(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// WithBroker replaces the broker rebuild events are published on.
func WithBroker(b *pubsub.Broker[RebuildReport]) Option {
	return func(r *Registry) {
		if b != nil {
			r.broker = b
		}
	}
}

// New creates a registry holding an empty snapshot.
func New(parser Parser, opts ...Option) *Registry {
	r := &Registry{
		parser:      parser,
		broker:      pubsub.NewBroker[RebuildReport](),
		tracer:      noop.NewTracerProvider().Tracer("registry"),
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.current.Store(emptySnapshot)
	return r
}

// Current returns the published snapshot. It never blocks and never returns nil.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Events returns a channel of rebuild events. The channel closes when ctx is done.
func (r *Registry) Events(ctx context.Context) <-chan pubsub.Event[RebuildReport] {
	return r.broker.Subscribe(ctx)
}

// Close shuts down the event broker.
func (r *Registry) Close() {
	r.broker.Close()
}

// Rebuild parses files and publishes a new snapshot. Concurrent calls queue
// behind the one in flight. Files are parsed in parallel but merged in the
// given order, so processing order (and therefore duplicate resolution) is
// deterministic. A file that fails to parse becomes a ParseFailure warning.
//
// If ctx is cancelled before the snapshot is published, the current snapshot
// is kept and ctx.Err() is returned.
func (r *Registry) Rebuild(ctx context.Context, files []string) (report RebuildReport, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, span := r.tracer.Start(ctx, tracing.SpanRebuild,
		trace.WithAttributes(attribute.Int(tracing.AttrFileCount, len(files))))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	start := time.Now()
	r.broker.Publish(pubsub.RebuildStarted, RebuildReport{Version: r.version, Files: len(files)})
	log.Info(log.CatRegistry, "Rebuild started", "files", len(files))

	results, err := r.parseAll(ctx, files)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		log.ErrorErr(log.CatRegistry, "Rebuild aborted", err)
		r.broker.Publish(pubsub.RebuildFailed, RebuildReport{Version: r.version, Files: len(files)})
		return RebuildReport{}, err
	}

	var (
		merged   []element.Element
		warnings []IntegrityWarning
	)
	for i, res := range results {
		if res.err != nil {
			warnings = append(warnings, IntegrityWarning{Kind: ParseFailure, Path: files[i], Err: res.err})
			continue
		}
		for _, skipped := range res.Skipped {
			warnings = append(warnings, IntegrityWarning{Kind: SkippedEntry, Path: files[i], Err: skipped})
		}
		merged = append(merged, res.Elements...)
	}

	snapshot, dupes := Build(merged, files, r.version+1)
	warnings = append(warnings, dupes...)

	r.version++
	r.current.Store(snapshot)

	for _, w := range warnings {
		log.Warn(log.CatRegistry, w.Error(), "kind", w.Kind)
	}

	report = RebuildReport{
		Version:  snapshot.Version(),
		Files:    len(files),
		Elements: snapshot.Len(),
		Warnings: warnings,
		Duration: time.Since(start),
	}
	span.SetAttributes(
		attribute.Int64(tracing.AttrSnapshotVersion, int64(report.Version)), // #nosec G115 -- rebuild counter
		attribute.Int(tracing.AttrElementCount, report.Elements),
		attribute.Int(tracing.AttrWarningCount, len(warnings)),
	)
	log.Info(log.CatRegistry, "Rebuild done",
		"version", report.Version,
		"elements", report.Elements,
		"warnings", len(warnings),
		"duration", report.Duration)
	r.broker.Publish(pubsub.RebuildCompleted, report)

	return report, nil
}

type fileResult struct {
	ParseResult
	err error
}

// parseAll parses every file, keeping results in file order. Per-file parse
// errors are carried in the result; only cancellation fails the whole call.
func (r *Registry) parseAll(ctx context.Context, files []string) ([]fileResult, error) {
	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.parser.Parse(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i] = fileResult{err: err}
				return nil
			}
			results[i] = fileResult{ParseResult: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
