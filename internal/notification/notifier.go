// Package notification carries best-effort notification requests out of the
// pipeline. Delivery transport is an external concern; sinks here either log,
// buffer for tests, or hand off to redis pub/sub. Sink failures are swallowed
// by the caller and must never fail a transition.
package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"stepway/pkg/domain"
)

// Request is one notification the pipeline wants delivered.
type Request struct {
	StudentID domain.StudentID   `json:"student_id"`
	Country   domain.CountryCode `json:"country"`
	Event     string             `json:"event"`
	PhaseKey  string             `json:"phase_key"`
	Message   string             `json:"message"`
	CreatedAt time.Time          `json:"created_at"`
}

// Sink accepts notification requests. Implementations are fire-and-forget.
type Sink interface {
	Notify(ctx context.Context, req Request) error
}

// SlogSink writes notification requests to the structured log. It is the
// default sink when no transport is configured.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Notify(ctx context.Context, req Request) error {
	s.logger.InfoContext(ctx, "notification request",
		"student_id", req.StudentID.String(),
		"country", req.Country.String(),
		"event", req.Event,
		"phase", req.PhaseKey,
		"message", req.Message,
	)
	return nil
}

// MemorySink buffers requests for inspection in tests.
type MemorySink struct {
	mu       sync.Mutex
	requests []Request
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Notify(_ context.Context, req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return nil
}

func (s *MemorySink) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}
