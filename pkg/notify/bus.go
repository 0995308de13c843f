package notify

import (
	"context"

	"messagewall/pkg/logger"
)

// Bus is the in-process notifier: a buffered channel between the ingest
// handler and a single consumer loop. Handing an event to the buffer is all
// MessagePosted guarantees; whether the consumer's rebuild succeeds is not
// reported back (the cron rebuilder heals missed or failed triggers).
type Bus struct {
	ch chan PostedEvent
}

// NewBus creates a Bus with the given buffer size (minimum 1).
func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus{ch: make(chan PostedEvent, buffer)}
}

// MessagePosted enqueues the event, blocking when the buffer is full until
// space frees up or ctx is canceled.
func (b *Bus) MessagePosted(ctx context.Context, ev PostedEvent) error {
	select {
	case b.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes events until ctx is canceled, invoking trigger for each one.
// Trigger failures are logged and the loop continues; the event is not
// retried here.
func (b *Bus) Run(ctx context.Context, trigger func(context.Context, PostedEvent) error) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("notify_bus_stopping")
			return
		case ev := <-b.ch:
			if err := trigger(ctx, ev); err != nil {
				logger.Error("notify_trigger_failed", "messageId", ev.MessageID, "error", err)
			}
		}
	}
}
