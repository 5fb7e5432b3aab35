// Package gating decides whether a forward transition is allowed given the
// student's uploaded documents. This is pure domain logic - no I/O, no side
// effects; the service gathers documents and metadata before calling in.
package gating

import (
	docmodels "stepway/internal/document/models"
	"stepway/internal/pipeline/catalog"
	"stepway/internal/pipeline/models"
	"stepway/internal/pipeline/requirements"
	"stepway/pkg/domain"
)

// Input carries everything a gating decision needs. Documents must already be
// filtered to the student; the engine filters by status itself.
type Input struct {
	Country      domain.CountryCode
	FromPhase    models.Phase
	ToPhase      models.Phase
	TargetLocked bool
	Documents    []docmodels.Document
}

// Decision is the structured verdict. Missing documents are never an error;
// they are the expected denial payload for caller-side messaging.
type Decision struct {
	Allowed      bool
	Locked       bool
	PhaseLabel   string
	Country      domain.CountryCode
	MissingTypes []docmodels.Type
}

// Engine evaluates forward-transition gates. The goal is to keep the rules
// centralized and testable.
type Engine struct {
	resolver *requirements.Resolver
}

func NewEngine(resolver *requirements.Resolver) *Engine {
	return &Engine{resolver: resolver}
}

// Authorize applies, in order:
//  1. the lock gate - no transition into a Locked phase ever succeeds
//  2. the Document Collection exit gate - its base set must be satisfied
//     before leaving it, independent of the target's own requirements
//  3. the target entry gate - the resolved requirements for the target phase
func (e *Engine) Authorize(in Input) Decision {
	if in.TargetLocked {
		return Decision{Locked: true, PhaseLabel: in.ToPhase.Label, Country: in.Country}
	}

	usable := usableByType(in.Documents)

	if in.FromPhase.Key == catalog.KeyDocumentCollection {
		missing := e.missing(requirements.BaseCollectionSet, usable, in.Country)
		if len(missing) > 0 {
			// Denial attributed to the exit gate of the current phase.
			return Decision{PhaseLabel: in.FromPhase.Label, Country: in.Country, MissingTypes: missing}
		}
	}

	required := e.resolver.Required(in.ToPhase.Key, in.ToPhase.Label, in.Country)
	missing := e.missing(required, usable, in.Country)
	if len(missing) > 0 {
		return Decision{PhaseLabel: in.ToPhase.Label, Country: in.Country, MissingTypes: missing}
	}

	return Decision{Allowed: true, PhaseLabel: in.ToPhase.Label, Country: in.Country}
}

// missing returns the required types no usable upload satisfies. Shared types
// are satisfied from the student's entire document set; country-exclusive
// types only by uploads filed under the profile's country.
func (e *Engine) missing(required []docmodels.Type, usable map[docmodels.Type][]docmodels.Document, country domain.CountryCode) []docmodels.Type {
	var missing []docmodels.Type
	for _, t := range required {
		docs := usable[t]
		if len(docs) == 0 {
			missing = append(missing, t)
			continue
		}
		if e.resolver.IsShared(t) {
			continue
		}
		satisfied := false
		for _, d := range docs {
			if d.Country == country || d.Country.IsNil() {
				satisfied = true
				break
			}
		}
		if !satisfied {
			missing = append(missing, t)
		}
	}
	return missing
}

func usableByType(docs []docmodels.Document) map[docmodels.Type][]docmodels.Document {
	byType := make(map[docmodels.Type][]docmodels.Document, len(docs))
	for _, d := range docs {
		if !d.CountsTowardGating() {
			continue
		}
		byType[d.Type] = append(byType[d.Type], d)
	}
	return byType
}
