// Package search answers the two single lookups over a registry snapshot:
// ID to element and name to element(s).
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/uuidtrans/internal/element"
	"github.com/zjrosen/uuidtrans/internal/flags"
	"github.com/zjrosen/uuidtrans/internal/log"
	"github.com/zjrosen/uuidtrans/internal/registry"
	"github.com/zjrosen/uuidtrans/internal/tracing"
)

const (
	// MaxSuggestions caps the "did you mean" list of an Empty name result.
	MaxSuggestions = 3
	// SuggestionThreshold is the minimum Jaro-Winkler similarity of a suggestion.
	SuggestionThreshold = 0.85
)

// SnapshotSource yields the snapshot a lookup reads. *registry.Registry
// satisfies it.
type SnapshotSource interface {
	Current() *registry.Snapshot
}

// Engine performs lookups. Each lookup captures one snapshot at its start and
// reads nothing else, so a concurrent rebuild never changes a result mid-call.
type Engine struct {
	source SnapshotSource
	pinned *registry.Snapshot
	flags  *flags.Registry
	tracer trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithFlags enables flag-gated behavior such as name suggestions.
func WithFlags(f *flags.Registry) Option {
	return func(e *Engine) {
		e.flags = f
	}
}

// WithTracer sets the tracer for lookup spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// New creates an engine over source.
func New(source SnapshotSource, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		tracer: noop.NewTracerProvider().Tracer("search"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns the snapshot the next lookup would read.
func (e *Engine) Snapshot() *registry.Snapshot {
	if e.pinned != nil {
		return e.pinned
	}
	return e.source.Current()
}

// At returns an engine that always reads snap. Bulk operations use it to see
// one consistent view for their whole run.
func (e *Engine) At(snap *registry.Snapshot) *Engine {
	pinned := *e
	pinned.pinned = snap
	return &pinned
}

// ByID resolves an ID. Input is trimmed; anything that is not exactly one
// ID is Invalid. ID comparison ignores case.
func (e *Engine) ByID(raw string) Result {
	_, span := e.tracer.Start(context.Background(), tracing.SpanSearchByID)
	defer span.End()

	snap := e.Snapshot()
	result := byID(snap, raw)

	span.SetAttributes(
		attribute.String(tracing.AttrResultKind, Kind(result)),
		attribute.Int64(tracing.AttrSnapshotVersion, int64(snap.Version())), // #nosec G115 -- rebuild counter
	)
	log.Debug(log.CatSearch, "Search by id", "result", Kind(result))
	return result
}

// ByName resolves a name. Input is trimmed; an empty input is Invalid.
// Names compare exactly, including case.
func (e *Engine) ByName(raw string) Result {
	_, span := e.tracer.Start(context.Background(), tracing.SpanSearchByName)
	defer span.End()

	snap := e.Snapshot()
	result := byName(snap, raw)
	if empty, ok := result.(Empty); ok && e.flags.Enabled(flags.FlagNameSuggestions) {
		empty.Suggestions = suggest(snap.Names(), strings.TrimSpace(raw))
		result = empty
	}

	span.SetAttributes(
		attribute.String(tracing.AttrResultKind, Kind(result)),
		attribute.Int64(tracing.AttrSnapshotVersion, int64(snap.Version())), // #nosec G115 -- rebuild counter
	)
	log.Debug(log.CatSearch, "Search by name", "result", Kind(result))
	return result
}

func byID(snap *registry.Snapshot, raw string) Result {
	id := strings.TrimSpace(raw)
	if id == "" || !element.IsID(id) {
		return Invalid{}
	}
	e, ok := snap.LookupID(id)
	if !ok {
		return Empty{Message: fmt.Sprintf("No element found for id '%s'", id)}
	}
	return One{Element: e}
}

func byName(snap *registry.Snapshot, raw string) Result {
	name := strings.TrimSpace(raw)
	if name == "" {
		return Invalid{}
	}
	matches := snap.LookupName(name)
	switch len(matches) {
	case 0:
		return Empty{Message: fmt.Sprintf("No element found for name '%s'", name)}
	case 1:
		return One{Element: matches[0]}
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID()
		}
		return Multiple{
			Message:    fmt.Sprintf("Multiple elements found for name '%s': %s", name, strings.Join(ids, ", ")),
			Candidates: matches,
		}
	}
}

// suggest returns up to MaxSuggestions names at least SuggestionThreshold
// similar to query, most similar first. Ties keep sorted name order.
func suggest(names []string, query string) []string {
	type scored struct {
		name  string
		score float32
	}
	var hits []scored
	for _, name := range names {
		score, err := edlib.StringsSimilarity(query, name, edlib.JaroWinkler)
		if err != nil || score < SuggestionThreshold {
			continue
		}
		hits = append(hits, scored{name: name, score: score})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > MaxSuggestions {
		hits = hits[:MaxSuggestions]
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.name)
	}
	return out
}
