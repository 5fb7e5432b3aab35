package models

import (
	"encoding/json"
	"fmt"
	"time"

	"stepway/pkg/domain"
)

// Phase is one named step in a country's application pipeline. Identity is
// the key; Order is its position in the catalog sequence.
type Phase struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Order int    `json:"order"`
}

// PhaseStatus is the lifecycle of one (student, country, phase) triple.
//
//	Pending → Current → Completed → (Current again, via reopen) → Locked
//
// Locked is terminal.
type PhaseStatus string

const (
	PhasePending   PhaseStatus = "PENDING"
	PhaseCurrent   PhaseStatus = "CURRENT"
	PhaseCompleted PhaseStatus = "COMPLETED"
	PhaseLocked    PhaseStatus = "LOCKED"
)

func ParsePhaseStatus(s string) (PhaseStatus, error) {
	st := PhaseStatus(s)
	switch st {
	case PhasePending, PhaseCurrent, PhaseCompleted, PhaseLocked:
		return st, nil
	}
	return "", fmt.Errorf("unknown phase status %q", s)
}

// DefaultMaxReopen bounds backward reopenings per phase before it locks.
const DefaultMaxReopen = 2

// PhaseMetadata tracks lifecycle status and the reopen budget for one
// (student, country, phase) triple. Rows are created lazily on first
// reference; ReopenCount only increases, via the reopen policy.
type PhaseMetadata struct {
	StudentID        domain.StudentID
	Country          domain.CountryCode
	PhaseKey         string
	Status           PhaseStatus
	ReopenCount      int
	MaxReopenAllowed int
	FinalEditAllowed bool
	UpdatedAt        time.Time
}

// NewPhaseMetadata returns the lazy-creation default for a triple.
func NewPhaseMetadata(studentID domain.StudentID, country domain.CountryCode, phaseKey string, status PhaseStatus) PhaseMetadata {
	return PhaseMetadata{
		StudentID:        studentID,
		Country:          country,
		PhaseKey:         phaseKey,
		Status:           status,
		ReopenCount:      0,
		MaxReopenAllowed: DefaultMaxReopen,
		FinalEditAllowed: true,
	}
}

// BudgetExhausted reports whether another reopen would exceed the budget.
func (m PhaseMetadata) BudgetExhausted() bool {
	return m.ReopenCount >= m.MaxReopenAllowed
}

// Profile is one student's pursuit of one destination country. CurrentPhase
// is the primary progress invariant; metadata is a secondary audit/limiting
// layer that degrades gracefully. Notes holds phase payloads under one
// namespaced key per phase key, never a merged blob.
type Profile struct {
	ID           domain.ProfileID
	StudentID    domain.StudentID
	Country      domain.CountryCode
	CurrentPhase string
	Notes        map[string]json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Direction classifies a transition request relative to catalog order.
type Direction int

const (
	DirectionNoOp Direction = iota
	DirectionForward
	DirectionBackward
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	default:
		return "noop"
	}
}
