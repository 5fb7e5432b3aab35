package phasemeta

import (
	"context"

	"stepway/internal/pipeline/models"
	"stepway/pkg/domain"
)

// Unavailable models a deployment whose metadata table is absent. Reads hand
// back ephemeral defaults, writes are no-ops, and the capability flag tells
// the reopen policy there is no budget to enforce. Document gating and phase
// advancement proceed unaffected.
type Unavailable struct{}

func NewUnavailable() *Unavailable {
	return &Unavailable{}
}

func (*Unavailable) SupportsReopenTracking() bool {
	return false
}

func (*Unavailable) GetOrCreate(_ context.Context, studentID domain.StudentID, country domain.CountryCode, phaseKey string, def models.PhaseStatus) (models.PhaseMetadata, error) {
	return models.NewPhaseMetadata(studentID, country, phaseKey, def), nil
}

func (*Unavailable) Update(context.Context, models.PhaseMetadata) error {
	return nil
}

func (*Unavailable) ListByProfile(context.Context, domain.StudentID, domain.CountryCode) ([]models.PhaseMetadata, error) {
	return nil, nil
}
