package audit

import (
	"context"
	"log/slog"
	"time"

	"stepway/pkg/domain"
)

// Publisher hands events to the worker over a buffered inbox. Emission never
// blocks the pipeline: when the inbox is full the event is dropped and
// logged, matching the best-effort side-effect contract.
type Publisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewPublisher(inbox chan<- Event, logger *slog.Logger) *Publisher {
	return &Publisher{inbox: inbox, logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, event dropped",
			"action", event.Action,
			"student_id", event.StudentID.String(),
		)
	}
}

// Reader exposes the persisted trail for admin inspection.
type Reader struct {
	store Store
}

func NewReader(store Store) *Reader {
	return &Reader{store: store}
}

func (r *Reader) ListByStudent(ctx context.Context, studentID domain.StudentID) ([]Event, error) {
	return r.store.ListByStudent(ctx, studentID)
}
