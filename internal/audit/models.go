package audit

import (
	"context"
	"time"

	"stepway/pkg/domain"
)

// Event is emitted from pipeline logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time          `json:"timestamp"`
	StudentID domain.StudentID   `json:"student_id"`
	Country   domain.CountryCode `json:"country"`
	Action    string             `json:"action"`
	FromPhase string             `json:"from_phase,omitempty"`
	ToPhase   string             `json:"to_phase,omitempty"`
	Outcome   string             `json:"outcome"`
	Reason    string             `json:"reason,omitempty"`
}

// Actions recorded by the pipeline.
const (
	ActionTransition    = "phase_transition"
	ActionReopen        = "phase_reopen"
	ActionLock          = "phase_lock"
	ActionCountrySelect = "country_select"
)

// Store is the append-only persistence contract for the trail.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByStudent(ctx context.Context, studentID domain.StudentID) ([]Event, error)
}
