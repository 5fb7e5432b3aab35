package models

import (
	docmodels "stepway/internal/document/models"
	"stepway/pkg/domain"
)

// OutcomeKind enumerates the results a transition or reopen request can end
// in. Denials are expected, frequent outcomes of normal use and are returned
// as structured values, never as errors.
type OutcomeKind string

const (
	OutcomeApplied                OutcomeKind = "applied"
	OutcomeNoOp                   OutcomeKind = "noop"
	OutcomeDeniedMissingDocuments OutcomeKind = "denied_missing_documents"
	OutcomeDeniedLocked           OutcomeKind = "denied_locked"
	OutcomeDeniedInvalidOrder     OutcomeKind = "denied_invalid_order"
	OutcomeDeniedNotStarted       OutcomeKind = "denied_not_started"
)

// Outcome is the structured result of a transition or reopen request. Only
// the fields relevant to Kind are populated.
type Outcome struct {
	Kind         OutcomeKind
	NewPhase     string
	Metadata     []PhaseMetadata
	PhaseLabel   string
	Country      domain.CountryCode
	MissingTypes []docmodels.Type
	Reason       string
}

func Applied(newPhase string, metadata []PhaseMetadata) Outcome {
	return Outcome{Kind: OutcomeApplied, NewPhase: newPhase, Metadata: metadata}
}

func NoOp(phase string) Outcome {
	return Outcome{Kind: OutcomeNoOp, NewPhase: phase}
}

func DeniedMissingDocuments(phaseLabel string, country domain.CountryCode, missing []docmodels.Type) Outcome {
	return Outcome{
		Kind:         OutcomeDeniedMissingDocuments,
		PhaseLabel:   phaseLabel,
		Country:      country,
		MissingTypes: missing,
	}
}

func DeniedLocked(phaseLabel string) Outcome {
	return Outcome{Kind: OutcomeDeniedLocked, PhaseLabel: phaseLabel, Reason: "phase permanently locked"}
}

func DeniedInvalidOrder(reason string) Outcome {
	return Outcome{Kind: OutcomeDeniedInvalidOrder, Reason: reason}
}

func DeniedNotStarted(reason string) Outcome {
	return Outcome{Kind: OutcomeDeniedNotStarted, Reason: reason}
}

// Denied reports whether the outcome is any denial kind.
func (o Outcome) Denied() bool {
	switch o.Kind {
	case OutcomeDeniedMissingDocuments, OutcomeDeniedLocked, OutcomeDeniedInvalidOrder, OutcomeDeniedNotStarted:
		return true
	}
	return false
}
