package audit

import (
	"context"
	"log/slog"
)

// Worker consumes pipeline events from the inbox, persists them, and fans
// them out to the optional stream publisher. Persistence failures are logged
// and skipped; the trail is best-effort by contract.
type Worker struct {
	store  Store
	stream StreamPublisher
	inbox  <-chan Event
	logger *slog.Logger
}

// StreamPublisher forwards events to an external stream (Kafka). A nil
// publisher disables fan-out.
type StreamPublisher interface {
	Publish(ctx context.Context, event Event) error
}

func NewWorker(store Store, stream StreamPublisher, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, stream: stream, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "audit append failed",
					"action", event.Action,
					"error", err.Error(),
				)
			}
			if w.stream != nil {
				if err := w.stream.Publish(ctx, event); err != nil {
					w.logger.WarnContext(ctx, "audit stream publish failed",
						"action", event.Action,
						"error", err.Error(),
					)
				}
			}
		}
	}
}
