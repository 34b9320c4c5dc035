// Package pubsub provides a generic publish/subscribe event system used to fan
// out registry rebuild notifications and log entries.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// RebuildStarted is published before a rebuild parses its files.
	RebuildStarted EventType = "rebuild.started"
	// RebuildCompleted is published after a new snapshot is live.
	RebuildCompleted EventType = "rebuild.completed"
	// RebuildFailed is published when a rebuild aborts without publishing.
	RebuildFailed EventType = "rebuild.failed"
	// LogEntry carries one formatted log line.
	LogEntry EventType = "log.entry"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context, types ...EventType) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
