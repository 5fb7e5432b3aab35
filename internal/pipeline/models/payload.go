package models

import (
	"encoding/json"
	"fmt"
)

// PayloadKind discriminates the phase-specific payload union.
type PayloadKind string

const (
	PayloadUniversitySelection PayloadKind = "university_selection"
	PayloadPayment             PayloadKind = "payment"
	PayloadDecision            PayloadKind = "decision"
)

// PhasePayload carries the side-channel data a transition may attach:
// selected universities, a payment, or an interview/visa decision. It is
// persisted by the profile store under notes[phaseKey], one namespaced entry
// per phase.
type PhasePayload struct {
	Kind PayloadKind `json:"kind"`

	// university_selection
	Universities []string `json:"universities,omitempty"`

	// payment
	Amount    int64  `json:"amount,omitempty"` // minor units
	Currency  string `json:"currency,omitempty"`
	Reference string `json:"reference,omitempty"`

	// decision
	Outcome string `json:"outcome,omitempty"`
	Note    string `json:"note,omitempty"`
}

// Validate checks that the fields required by the payload kind are present.
func (p *PhasePayload) Validate() error {
	switch p.Kind {
	case PayloadUniversitySelection:
		if len(p.Universities) == 0 {
			return fmt.Errorf("university_selection payload requires at least one university")
		}
	case PayloadPayment:
		if p.Amount <= 0 {
			return fmt.Errorf("payment payload requires a positive amount")
		}
		if p.Currency == "" {
			return fmt.Errorf("payment payload requires a currency")
		}
	case PayloadDecision:
		if p.Outcome == "" {
			return fmt.Errorf("decision payload requires an outcome")
		}
	default:
		return fmt.Errorf("unknown payload kind %q", p.Kind)
	}
	return nil
}

// Marshal serializes the payload for namespaced storage on the profile.
func (p *PhasePayload) Marshal() (json.RawMessage, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal phase payload: %w", err)
	}
	return raw, nil
}
