// Package reopen enforces the bounded backward-transition budget. Each phase
// may be reopened at most MaxReopenAllowed times; the attempt after the
// budget is exhausted locks the phase permanently and is denied.
package reopen

import (
	"context"
	"log/slog"

	"stepway/internal/pipeline/catalog"
	"stepway/internal/pipeline/metadata"
	"stepway/internal/pipeline/models"
	"stepway/pkg/domain"
)

// Verdict is the authorization outcome for a reopen attempt.
type Verdict struct {
	Allowed    bool
	Locked     bool
	PhaseLabel string
}

// Policy owns reopen authorization and its metadata effects. Authorize runs
// before the profile's current phase moves; Apply runs after, because the
// profile update is the primary invariant and metadata writes are a
// best-effort secondary layer.
type Policy struct {
	tracker *metadata.Tracker
	logger  *slog.Logger
}

func NewPolicy(tracker *metadata.Tracker, logger *slog.Logger) *Policy {
	return &Policy{tracker: tracker, logger: logger}
}

// Authorize checks the target's lock state and reopen budget. A target whose
// budget is already exhausted locks now: the lock engages on the attempt
// after the budget ran out, and that attempt is denied.
func (p *Policy) Authorize(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, target models.Phase) Verdict {
	meta := p.tracker.GetOrCreate(ctx, studentID, country, target.Key, models.PhaseCompleted)

	if meta.Status == models.PhaseLocked {
		return Verdict{Locked: true, PhaseLabel: target.Label}
	}

	// Without reopen tracking there is no budget to enforce; the reopen
	// proceeds so counselors are not blocked by a missing metadata table.
	if p.tracker.SupportsReopenTracking() && meta.BudgetExhausted() {
		meta.Status = models.PhaseLocked
		meta.FinalEditAllowed = false
		p.tracker.Update(ctx, meta)
		p.logger.InfoContext(ctx, "phase locked after reopen budget exhausted",
			"student_id", studentID.String(),
			"country", country.String(),
			"phase", target.Key,
			"reopen_count", meta.ReopenCount,
		)
		return Verdict{Locked: true, PhaseLabel: target.Label}
	}

	return Verdict{Allowed: true, PhaseLabel: target.Label}
}

// Apply performs the metadata effects of an authorized reopen: increment the
// target's reopen count, make it Current, and reset every catalog phase
// strictly after it to Pending. Phases before the target are untouched.
// Returns the touched rows as snapshots.
func (p *Policy) Apply(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, target models.Phase, phases []models.Phase) []models.PhaseMetadata {
	meta := p.tracker.GetOrCreate(ctx, studentID, country, target.Key, models.PhaseCompleted)

	meta.ReopenCount++
	meta.Status = models.PhaseCurrent
	if meta.ReopenCount > meta.MaxReopenAllowed {
		meta.FinalEditAllowed = false
	}
	p.tracker.Update(ctx, meta)

	snapshots := []models.PhaseMetadata{meta}
	snapshots = append(snapshots, p.resetDownstream(ctx, studentID, country, target.Key, phases)...)
	return snapshots
}

// resetDownstream cascades pending resets onto every phase strictly after the
// reopened one.
func (p *Policy) resetDownstream(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, targetKey string, phases []models.Phase) []models.PhaseMetadata {
	_, targetIdx := catalog.Find(phases, targetKey)
	if targetIdx < 0 {
		// Country-specific target outside the catalog: downstream order is
		// unknowable, so nothing cascades.
		return nil
	}
	var out []models.PhaseMetadata
	for _, ph := range phases[targetIdx+1:] {
		meta := p.tracker.GetOrCreate(ctx, studentID, country, ph.Key, models.PhasePending)
		if meta.Status == models.PhasePending || meta.Status == models.PhaseLocked {
			out = append(out, meta)
			continue
		}
		meta.Status = models.PhasePending
		p.tracker.Update(ctx, meta)
		out = append(out, meta)
	}
	return out
}
