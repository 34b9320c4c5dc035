// Package replace applies lookups in bulk to arbitrary text. Both algorithms
// are best effort: anything that does not resolve to exactly one element is
// left exactly as it was.
package replace

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/uuidtrans/internal/element"
	"github.com/zjrosen/uuidtrans/internal/log"
	"github.com/zjrosen/uuidtrans/internal/search"
	"github.com/zjrosen/uuidtrans/internal/tracing"
)

// ErrReplacementFailed matches every error that aborted a bulk replacement.
var ErrReplacementFailed = errors.New("replacement failed")

// ReplacementError reports an I/O failure while reading replacement input.
// No partial result accompanies it.
type ReplacementError struct {
	Line int // lines read successfully before the failure
	Err  error
}

func (e *ReplacementError) Error() string {
	return fmt.Sprintf("replacement failed after %d lines: %v", e.Line, e.Err)
}

func (e *ReplacementError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrReplacementFailed) hold.
func (e *ReplacementError) Is(target error) bool {
	return target == ErrReplacementFailed
}

// Report counts what a replacement resolved.
type Report struct {
	// Resolved is the number of distinct ID tokens, or lines, that were replaced.
	Resolved int
	// Unresolved is the number of distinct ID tokens, or non-blank lines, left as is.
	Unresolved int
}

// Replacer runs bulk replacements against a search engine.
type Replacer struct {
	engine *search.Engine
	tracer trace.Tracer
}

// Option configures a Replacer.
type Option func(*Replacer)

// WithTracer sets the tracer for replacement spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Replacer) {
		if t != nil {
			r.tracer = t
		}
	}
}

// New creates a Replacer.
func New(engine *search.Engine, opts ...Option) *Replacer {
	r := &Replacer{
		engine: engine,
		tracer: noop.NewTracerProvider().Tracer("replace"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IDs replaces every ID in text that resolves to one element with that
// element's name.
func (r *Replacer) IDs(text string) string {
	out, _ := r.IDsWithReport(text)
	return out
}

// IDsWithReport is IDs plus counts. Matches are found in the original text;
// each distinct resolved match is then replaced everywhere it literally
// occurs in the output, in order of first appearance.
//
// Replacements chain: a name that is itself an ID found later in the text is
// replaced again in the same pass. The result is idempotent only while no
// element name is UUID-shaped.
func (r *Replacer) IDsWithReport(text string) (string, Report) {
	_, span := r.tracer.Start(context.Background(), tracing.SpanReplaceIDs,
		trace.WithAttributes(attribute.Int(tracing.AttrInputLength, len(text))))
	defer span.End()

	engine := r.engine.At(r.engine.Snapshot())

	var report Report
	out := text
	seen := make(map[string]struct{})
	for _, match := range element.IDPattern.FindAllString(text, -1) {
		if _, dup := seen[match]; dup {
			continue
		}
		seen[match] = struct{}{}

		one, ok := engine.ByID(match).(search.One)
		if !ok {
			report.Unresolved++
			continue
		}
		out = strings.ReplaceAll(out, match, one.Element.Name())
		report.Resolved++
	}

	span.SetAttributes(
		attribute.Int(tracing.AttrResolved, report.Resolved),
		attribute.Int(tracing.AttrUnresolved, report.Unresolved),
	)
	log.Debug(log.CatReplace, "Replaced ids", "resolved", report.Resolved, "unresolved", report.Unresolved)
	return out, report
}

// NamesString is Names over an in-memory string, which cannot fail to read.
func (r *Replacer) NamesString(text string) string {
	out, _, _ := r.NamesWithReport(strings.NewReader(text))
	return out
}

// Names reads lines from src and replaces every line that names exactly one
// element with that element's ID. A read error aborts with a
// *ReplacementError and no output.
func (r *Replacer) Names(src io.Reader) (string, error) {
	out, _, err := r.NamesWithReport(src)
	return out, err
}

// NamesWithReport is Names plus counts.
//
// Lines end at "\n"; a trailing "\r" is dropped so CRLF input is accepted.
// Lines are matched after trimming but unmatched lines are kept verbatim.
// Output lines are joined with "\n" and the line count never changes: input
// ending in a newline yields output ending in a newline.
func (r *Replacer) NamesWithReport(src io.Reader) (result string, report Report, err error) {
	_, span := r.tracer.Start(context.Background(), tracing.SpanReplaceNames)
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	engine := r.engine.At(r.engine.Snapshot())

	var (
		lines []string
		total int
	)
	reader := bufio.NewReader(src)
	for {
		line, readErr := reader.ReadString('\n')
		total += len(line)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			err = &ReplacementError{Line: len(lines), Err: readErr}
			log.ErrorErr(log.CatReplace, "Replacement failed", readErr, "line", len(lines))
			return "", Report{}, err
		}

		hasNewline := strings.HasSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		if one, ok := engine.ByName(line).(search.One); ok {
			lines = append(lines, one.Element.ID())
			report.Resolved++
		} else {
			lines = append(lines, line)
			if strings.TrimSpace(line) != "" {
				report.Unresolved++
			}
		}

		if !hasNewline {
			break
		}
	}

	span.SetAttributes(
		attribute.Int(tracing.AttrInputLength, total),
		attribute.Int(tracing.AttrResolved, report.Resolved),
		attribute.Int(tracing.AttrUnresolved, report.Unresolved),
	)
	log.Debug(log.CatReplace, "Replaced names", "lines", len(lines), "resolved", report.Resolved)
	return strings.Join(lines, "\n"), report, nil
}
