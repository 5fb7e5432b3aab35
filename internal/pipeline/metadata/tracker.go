// Package metadata tracks per-(student, country, phase) lifecycle rows. The
// profile's current phase is the primary invariant; these rows are a
// secondary audit/limiting layer, so every write here is best-effort and the
// engine keeps functioning when the backing store is not provisioned.
package metadata

import (
	"context"
	"log/slog"

	"stepway/internal/pipeline/models"
	"stepway/pkg/domain"
)

// Store is the persistence contract. SupportsReopenTracking is a capability
// flag: implementations over an absent/uninitialized table report false and
// the reopen budget feature degrades instead of erroring.
type Store interface {
	SupportsReopenTracking() bool
	GetOrCreate(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, phaseKey string, def models.PhaseStatus) (models.PhaseMetadata, error)
	Update(ctx context.Context, meta models.PhaseMetadata) error
	ListByProfile(ctx context.Context, studentID domain.StudentID, country domain.CountryCode) ([]models.PhaseMetadata, error)
}

// Tracker wraps a Store with the degradation rules the engine relies on:
// reads fall back to ephemeral defaults, writes are logged and dropped on
// failure, never propagated.
type Tracker struct {
	store  Store
	logger *slog.Logger
}

func NewTracker(store Store, logger *slog.Logger) *Tracker {
	return &Tracker{store: store, logger: logger}
}

// SupportsReopenTracking reports whether reopen budgets can be enforced.
func (t *Tracker) SupportsReopenTracking() bool {
	return t.store.SupportsReopenTracking()
}

// GetOrCreate returns the row for a triple, lazily created with the given
// default status. Store failures degrade to an ephemeral in-memory default so
// gating and phase advancement still proceed.
func (t *Tracker) GetOrCreate(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, phaseKey string, def models.PhaseStatus) models.PhaseMetadata {
	meta, err := t.store.GetOrCreate(ctx, studentID, country, phaseKey, def)
	if err != nil {
		t.logger.WarnContext(ctx, "phase metadata unavailable, using ephemeral default",
			"student_id", studentID.String(),
			"country", country.String(),
			"phase", phaseKey,
			"error", err.Error(),
		)
		return models.NewPhaseMetadata(studentID, country, phaseKey, def)
	}
	return meta
}

// Update persists a row, logging and dropping failures. Metadata drift is
// recoverable: rows are lazily recreated on next reference.
func (t *Tracker) Update(ctx context.Context, meta models.PhaseMetadata) {
	if err := t.store.Update(ctx, meta); err != nil {
		t.logger.WarnContext(ctx, "phase metadata update dropped",
			"student_id", meta.StudentID.String(),
			"country", meta.Country.String(),
			"phase", meta.PhaseKey,
			"error", err.Error(),
		)
	}
}

// Snapshots lists all rows for a (student, country) pair, returning an empty
// list rather than erroring when the backing store is missing.
func (t *Tracker) Snapshots(ctx context.Context, studentID domain.StudentID, country domain.CountryCode) []models.PhaseMetadata {
	snaps, err := t.store.ListByProfile(ctx, studentID, country)
	if err != nil {
		t.logger.WarnContext(ctx, "phase metadata listing unavailable",
			"student_id", studentID.String(),
			"country", country.String(),
			"error", err.Error(),
		)
		return nil
	}
	return snaps
}

// MarkCompleted closes out a phase on a forward transition. A phase whose
// reopen count already exceeds its budget from prior cycling locks at the
// moment of completion instead.
func (t *Tracker) MarkCompleted(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, phaseKey string) models.PhaseMetadata {
	meta := t.GetOrCreate(ctx, studentID, country, phaseKey, models.PhaseCurrent)
	if meta.Status == models.PhaseLocked {
		return meta
	}
	if meta.ReopenCount > meta.MaxReopenAllowed {
		meta.Status = models.PhaseLocked
		meta.FinalEditAllowed = false
	} else {
		meta.Status = models.PhaseCompleted
	}
	t.Update(ctx, meta)
	return meta
}

// MarkCurrent makes a phase the student's active one.
func (t *Tracker) MarkCurrent(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, phaseKey string) models.PhaseMetadata {
	meta := t.GetOrCreate(ctx, studentID, country, phaseKey, models.PhasePending)
	if meta.Status == models.PhaseLocked {
		return meta
	}
	meta.Status = models.PhaseCurrent
	t.Update(ctx, meta)
	return meta
}
