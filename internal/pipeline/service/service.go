// Package service orchestrates the phase transition engine: catalog lookup,
// transition classification, document gating, reopen policy, and the side
// effects of an applied transition (metadata, payload persistence,
// notifications, cache invalidation, audit trail).
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"stepway/internal/audit"
	docmodels "stepway/internal/document/models"
	"stepway/internal/notification"
	"stepway/internal/pipeline/cache"
	"stepway/internal/pipeline/catalog"
	"stepway/internal/pipeline/gating"
	"stepway/internal/pipeline/metadata"
	"stepway/internal/pipeline/metrics"
	"stepway/internal/pipeline/models"
	"stepway/internal/pipeline/reopen"
	"stepway/internal/pipeline/transition"
	"stepway/pkg/domain"
	dErrors "stepway/pkg/domain-errors"
	"stepway/pkg/platform/sentinel"
)

// ProfileStore persists ApplicationCountryProfile rows.
type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile) error
	Find(ctx context.Context, studentID domain.StudentID, country domain.CountryCode) (*models.Profile, error)
	ListByStudent(ctx context.Context, studentID domain.StudentID) ([]*models.Profile, error)
	UpdatePhase(ctx context.Context, id domain.ProfileID, phaseKey string, updatedAt time.Time) error
	SavePayload(ctx context.Context, id domain.ProfileID, phaseKey string, payload json.RawMessage) error
}

// DocumentSource supplies the student's uploaded document metadata.
type DocumentSource interface {
	ListByStudent(ctx context.Context, studentID domain.StudentID, statuses ...docmodels.Status) ([]docmodels.Document, error)
}

// Deps wires the service. Sink, Audit, Cache, and Metrics may be nil; every
// side effect degrades to a no-op.
type Deps struct {
	Catalog   *catalog.Provider
	Gate      *gating.Engine
	Reopen    *reopen.Policy
	Tracker   *metadata.Tracker
	Profiles  ProfileStore
	Documents DocumentSource
	Sink      notification.Sink
	Audit     *audit.Publisher
	Cache     *cache.SnapshotCache
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

type Service struct {
	deps Deps
}

func New(deps Deps) *Service {
	return &Service{deps: deps}
}

// SelectCountry creates the student's profile for a destination country. The
// call is idempotent: selecting an already-pursued country returns the
// existing profile untouched.
func (s *Service) SelectCountry(ctx context.Context, studentID domain.StudentID, country domain.CountryCode) (*models.Profile, error) {
	if existing, err := s.deps.Profiles.Find(ctx, studentID, country); err == nil {
		return existing, nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load country profile", err)
	}

	phases := s.deps.Catalog.Catalog(ctx, country)
	now := time.Now()
	profile := &models.Profile{
		ID:           domain.NewProfileID(),
		StudentID:    studentID,
		Country:      country,
		CurrentPhase: phases[0].Key,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.deps.Profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a concurrent select; the winner's row is the
			// profile.
			return s.findProfile(ctx, studentID, country)
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create country profile", err)
	}

	s.deps.Tracker.MarkCurrent(ctx, studentID, country, phases[0].Key)
	s.emitAudit(ctx, audit.Event{
		StudentID: studentID,
		Country:   country,
		Action:    audit.ActionCountrySelect,
		ToPhase:   phases[0].Key,
		Outcome:   string(models.OutcomeApplied),
	})
	return profile, nil
}

// Profiles lists every country the student pursues.
func (s *Service) Profiles(ctx context.Context, studentID domain.StudentID) ([]*models.Profile, error) {
	profiles, err := s.deps.Profiles.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list country profiles", err)
	}
	return profiles, nil
}

// CountryCatalog resolves the ordered phase sequence for a country.
func (s *Service) CountryCatalog(ctx context.Context, country domain.CountryCode) []models.Phase {
	return s.deps.Catalog.Catalog(ctx, country)
}

// PhaseMetadata returns the pair's metadata snapshots. Tolerant of a missing
// backing store: degraded mode yields an empty list, never an error.
func (s *Service) PhaseMetadata(ctx context.Context, studentID domain.StudentID, country domain.CountryCode) []models.PhaseMetadata {
	if snaps, ok := s.deps.Cache.Get(ctx, studentID, country); ok {
		s.deps.Metrics.IncrementCacheLookup("hit")
		return snaps
	}
	s.deps.Metrics.IncrementCacheLookup("miss")
	snaps := s.deps.Tracker.Snapshots(ctx, studentID, country)
	if len(snaps) > 0 {
		s.deps.Cache.Put(ctx, studentID, country, snaps)
	}
	return snaps
}

// RequestPhaseTransition evaluates and, when legal, applies a phase change.
// Denials are structured outcomes; only storage faults surface as errors.
func (s *Service) RequestPhaseTransition(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, requestedPhase string, payload *models.PhasePayload) (models.Outcome, error) {
	start := time.Now()
	defer func() { s.deps.Metrics.ObserveTransitionLatency(time.Since(start)) }()

	if payload != nil {
		if err := payload.Validate(); err != nil {
			return models.Outcome{}, dErrors.New(dErrors.CodeValidation, err.Error())
		}
	}

	profile, err := s.findProfile(ctx, studentID, country)
	if err != nil {
		return models.Outcome{}, err
	}

	phases := s.deps.Catalog.Catalog(ctx, country)
	class, err := transition.Classify(phases, profile.CurrentPhase, requestedPhase, s.metadataLookup(ctx, studentID, country))
	if err != nil {
		return s.denyClassification(ctx, profile, requestedPhase, err), nil
	}

	switch class.Direction {
	case models.DirectionNoOp:
		// Requesting the current phase mutates nothing.
		s.deps.Metrics.IncrementTransition(string(models.OutcomeNoOp), country.String())
		return models.NoOp(profile.CurrentPhase), nil
	case models.DirectionBackward:
		return s.applyReopen(ctx, profile, s.resolvePhase(phases, requestedPhase), phases)
	default:
		return s.applyForward(ctx, profile, phases, class, requestedPhase, payload)
	}
}

// RequestPhaseReopen is the explicit backward entry point. The target must
// strictly precede the profile's current phase under catalog order, with the
// lenient exceptions for country-specific phases.
func (s *Service) RequestPhaseReopen(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, targetPhase string) (models.Outcome, error) {
	profile, err := s.findProfile(ctx, studentID, country)
	if err != nil {
		return models.Outcome{}, err
	}

	phases := s.deps.Catalog.Catalog(ctx, country)
	class, err := transition.Classify(phases, profile.CurrentPhase, targetPhase, s.metadataLookup(ctx, studentID, country))
	if err != nil {
		return s.denyClassification(ctx, profile, targetPhase, err), nil
	}
	if class.Direction != models.DirectionBackward {
		s.deps.Metrics.IncrementReopen(string(models.OutcomeDeniedInvalidOrder))
		return models.DeniedInvalidOrder(fmt.Sprintf("phase %q does not precede current phase %q", targetPhase, profile.CurrentPhase)), nil
	}

	return s.applyReopen(ctx, profile, s.resolvePhase(phases, targetPhase), phases)
}

func (s *Service) applyForward(ctx context.Context, profile *models.Profile, phases []models.Phase, class transition.Classification, requestedPhase string, payload *models.PhasePayload) (models.Outcome, error) {
	country := profile.Country
	fromPhase := s.resolvePhase(phases, profile.CurrentPhase)
	toPhase := s.resolvePhase(phases, requestedPhase)

	// Evidence gathering: documents and the target's lock state come from
	// different collaborators, so fetch them concurrently.
	var (
		docs       []docmodels.Document
		targetMeta models.PhaseMetadata
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = s.deps.Documents.ListByStudent(gctx, profile.StudentID, docmodels.StatusPending, docmodels.StatusApproved)
		if err != nil {
			return fmt.Errorf("fetch documents: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		targetMeta = s.deps.Tracker.GetOrCreate(gctx, profile.StudentID, country, toPhase.Key, models.PhasePending)
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.Outcome{}, dErrors.Wrap(dErrors.CodeInternal, "failed to gather transition evidence", err)
	}

	decision := s.deps.Gate.Authorize(gating.Input{
		Country:      country,
		FromPhase:    fromPhase,
		ToPhase:      toPhase,
		TargetLocked: targetMeta.Status == models.PhaseLocked,
		Documents:    docs,
	})
	if decision.Locked {
		s.deps.Metrics.IncrementTransition(string(models.OutcomeDeniedLocked), country.String())
		s.emitAudit(ctx, audit.Event{
			StudentID: profile.StudentID, Country: country, Action: audit.ActionTransition,
			FromPhase: fromPhase.Key, ToPhase: toPhase.Key,
			Outcome: string(models.OutcomeDeniedLocked),
		})
		return models.DeniedLocked(decision.PhaseLabel), nil
	}
	if !decision.Allowed {
		s.deps.Metrics.IncrementTransition(string(models.OutcomeDeniedMissingDocuments), country.String())
		s.emitAudit(ctx, audit.Event{
			StudentID: profile.StudentID, Country: country, Action: audit.ActionTransition,
			FromPhase: fromPhase.Key, ToPhase: toPhase.Key,
			Outcome: string(models.OutcomeDeniedMissingDocuments),
			Reason:  fmt.Sprintf("missing %d document(s)", len(decision.MissingTypes)),
		})
		return models.DeniedMissingDocuments(decision.PhaseLabel, country, decision.MissingTypes), nil
	}

	// The profile's current phase is the primary invariant: apply it first
	// and propagate its faults. Everything after is best-effort.
	now := time.Now()
	if err := s.deps.Profiles.UpdatePhase(ctx, profile.ID, toPhase.Key, now); err != nil {
		return models.Outcome{}, dErrors.Wrap(dErrors.CodeInternal, "failed to advance profile phase", err)
	}

	// Close out the phase being left and everything passed over, then make
	// the target current.
	if class.FromIndex >= 0 && class.ToIndex > class.FromIndex {
		for _, ph := range phases[class.FromIndex:class.ToIndex] {
			s.deps.Tracker.MarkCompleted(ctx, profile.StudentID, country, ph.Key)
		}
	} else {
		s.deps.Tracker.MarkCompleted(ctx, profile.StudentID, country, fromPhase.Key)
	}
	s.deps.Tracker.MarkCurrent(ctx, profile.StudentID, country, toPhase.Key)

	if payload != nil {
		s.savePayload(ctx, profile, toPhase.Key, payload)
	}

	snapshots := s.deps.Tracker.Snapshots(ctx, profile.StudentID, country)
	s.deps.Cache.Invalidate(ctx, profile.StudentID, country)
	s.notify(ctx, notification.Request{
		StudentID: profile.StudentID,
		Country:   country,
		Event:     "phase_advanced",
		PhaseKey:  toPhase.Key,
		Message:   fmt.Sprintf("Application moved to %s", toPhase.Label),
	})
	s.emitAudit(ctx, audit.Event{
		StudentID: profile.StudentID, Country: country, Action: audit.ActionTransition,
		FromPhase: fromPhase.Key, ToPhase: toPhase.Key,
		Outcome: string(models.OutcomeApplied),
	})
	s.deps.Metrics.IncrementTransition(string(models.OutcomeApplied), country.String())

	return models.Applied(toPhase.Key, snapshots), nil
}

func (s *Service) applyReopen(ctx context.Context, profile *models.Profile, target models.Phase, phases []models.Phase) (models.Outcome, error) {
	country := profile.Country
	verdict := s.deps.Reopen.Authorize(ctx, profile.StudentID, country, target)
	if verdict.Locked {
		s.deps.Metrics.IncrementReopen(string(models.OutcomeDeniedLocked))
		s.emitAudit(ctx, audit.Event{
			StudentID: profile.StudentID, Country: country, Action: audit.ActionLock,
			ToPhase: target.Key, Outcome: string(models.OutcomeDeniedLocked),
			Reason: "reopen budget exhausted",
		})
		return models.DeniedLocked(verdict.PhaseLabel), nil
	}

	now := time.Now()
	if err := s.deps.Profiles.UpdatePhase(ctx, profile.ID, target.Key, now); err != nil {
		return models.Outcome{}, dErrors.Wrap(dErrors.CodeInternal, "failed to rewind profile phase", err)
	}

	snapshots := s.deps.Reopen.Apply(ctx, profile.StudentID, country, target, phases)
	s.deps.Cache.Invalidate(ctx, profile.StudentID, country)
	s.notify(ctx, notification.Request{
		StudentID: profile.StudentID,
		Country:   country,
		Event:     "phase_reopened",
		PhaseKey:  target.Key,
		Message:   fmt.Sprintf("Application reopened at %s", target.Label),
	})
	s.emitAudit(ctx, audit.Event{
		StudentID: profile.StudentID, Country: country, Action: audit.ActionReopen,
		FromPhase: profile.CurrentPhase, ToPhase: target.Key,
		Outcome: string(models.OutcomeApplied),
	})
	s.deps.Metrics.IncrementReopen(string(models.OutcomeApplied))

	return models.Applied(target.Key, snapshots), nil
}

func (s *Service) denyClassification(ctx context.Context, profile *models.Profile, requestedPhase string, err error) models.Outcome {
	country := profile.Country
	var outcome models.Outcome
	switch {
	case errors.Is(err, transition.ErrPhaseNotStarted):
		outcome = models.DeniedNotStarted(err.Error())
	default:
		outcome = models.DeniedInvalidOrder(err.Error())
	}
	s.deps.Metrics.IncrementTransition(string(outcome.Kind), country.String())
	s.emitAudit(ctx, audit.Event{
		StudentID: profile.StudentID, Country: country, Action: audit.ActionTransition,
		FromPhase: profile.CurrentPhase, ToPhase: requestedPhase,
		Outcome: string(outcome.Kind), Reason: err.Error(),
	})
	return outcome
}

// metadataLookup feeds the validator's lenient unlisted-phase rules from
// existing rows only; it never creates.
func (s *Service) metadataLookup(ctx context.Context, studentID domain.StudentID, country domain.CountryCode) transition.MetadataLookup {
	snaps := s.deps.Tracker.Snapshots(ctx, studentID, country)
	byKey := make(map[string]models.PhaseMetadata, len(snaps))
	for _, m := range snaps {
		byKey[m.PhaseKey] = m
	}
	return func(phaseKey string) (models.PhaseMetadata, bool) {
		m, ok := byKey[phaseKey]
		return m, ok
	}
}

// resolvePhase returns the catalog phase for a key, or a synthesized phase
// for country-specific keys the catalog does not list.
func (s *Service) resolvePhase(phases []models.Phase, key string) models.Phase {
	if ph, idx := catalog.Find(phases, key); idx >= 0 {
		return ph
	}
	return models.Phase{Key: key, Label: catalog.LabelFromKey(key), Order: -1}
}

func (s *Service) findProfile(ctx context.Context, studentID domain.StudentID, country domain.CountryCode) (*models.Profile, error) {
	profile, err := s.deps.Profiles.Find(ctx, studentID, country)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "country profile not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load country profile", err)
	}
	return profile, nil
}

func (s *Service) savePayload(ctx context.Context, profile *models.Profile, phaseKey string, payload *models.PhasePayload) {
	raw, err := payload.Marshal()
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "phase payload dropped", "phase", phaseKey, "error", err.Error())
		return
	}
	if err := s.deps.Profiles.SavePayload(ctx, profile.ID, phaseKey, raw); err != nil {
		s.deps.Logger.WarnContext(ctx, "phase payload persist failed", "phase", phaseKey, "error", err.Error())
	}
}

func (s *Service) notify(ctx context.Context, req notification.Request) {
	if s.deps.Sink == nil {
		return
	}
	req.CreatedAt = time.Now()
	// Fire-and-forget: a sink failure never rolls back a transition.
	if err := s.deps.Sink.Notify(ctx, req); err != nil {
		s.deps.Logger.WarnContext(ctx, "notification dispatch failed",
			"event", req.Event,
			"student_id", req.StudentID.String(),
			"error", err.Error(),
		)
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.deps.Audit == nil {
		return
	}
	s.deps.Audit.Emit(ctx, event)
}
