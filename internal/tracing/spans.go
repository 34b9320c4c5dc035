package tracing

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanRebuild      = "registry.rebuild"
	SpanSearchByID   = "search.by_id"
	SpanSearchByName = "search.by_name"
	SpanReplaceIDs   = "replace.ids"
	SpanReplaceNames = "replace.names"
)

// Span attribute keys.
const (
	AttrSnapshotVersion = "snapshot.version"
	AttrFileCount       = "rebuild.files"
	AttrElementCount    = "rebuild.elements"
	AttrWarningCount    = "rebuild.warnings"
	AttrResultKind      = "search.result"
	AttrInputLength     = "replace.input_length"
	AttrResolved        = "replace.resolved"
	AttrUnresolved      = "replace.unresolved"
)

// RecordError marks span as failed with err. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
