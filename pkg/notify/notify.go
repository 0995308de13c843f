// Package notify carries the "message posted" signal from the ingest path to
// whatever rebuilds the snapshot. Delivery is at-least-once and the payload
// is advisory only: consumers re-read ground truth from the store and must
// stay idempotent.
package notify

import "context"

// PostedEvent is the advisory payload attached to a posted notification.
type PostedEvent struct {
	MessageID string `json:"messageId"`
	Timestamp string `json:"timestamp"`
}

// Notifier emits one event per accepted message. Implementations do not
// confirm downstream delivery; an error only means the signal could not be
// handed off at all.
type Notifier interface {
	MessagePosted(ctx context.Context, ev PostedEvent) error
}

// Noop discards every event. Used when snapshot rebuilds are driven purely
// by the cron rebuilder, and in tests.
type Noop struct{}

func (Noop) MessagePosted(context.Context, PostedEvent) error { return nil }
