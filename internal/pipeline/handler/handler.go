// Package handler is the thin HTTP layer over the pipeline service. It
// translates structured transition outcomes into status codes and JSON; no
// gating or ordering logic lives here.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stepway/internal/pipeline/models"
	"stepway/internal/platform/middleware"
	"stepway/internal/transport/http/shared"
	"stepway/pkg/domain"
	dErrors "stepway/pkg/domain-errors"
)

// Service is the pipeline surface the handler needs.
type Service interface {
	SelectCountry(ctx context.Context, studentID domain.StudentID, country domain.CountryCode) (*models.Profile, error)
	Profiles(ctx context.Context, studentID domain.StudentID) ([]*models.Profile, error)
	CountryCatalog(ctx context.Context, country domain.CountryCode) []models.Phase
	PhaseMetadata(ctx context.Context, studentID domain.StudentID, country domain.CountryCode) []models.PhaseMetadata
	RequestPhaseTransition(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, requestedPhase string, payload *models.PhasePayload) (models.Outcome, error)
	RequestPhaseReopen(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, targetPhase string) (models.Outcome, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the pipeline routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/students/{studentID}/countries", h.handleSelectCountry)
	r.Get("/students/{studentID}/countries", h.handleListProfiles)
	r.Get("/countries/{country}/catalog", h.handleCatalog)
	r.Post("/students/{studentID}/countries/{country}/transition", h.handleTransition)
	r.Post("/students/{studentID}/countries/{country}/reopen", h.handleReopen)
	r.Get("/students/{studentID}/countries/{country}/phases", h.handlePhases)
}

type selectCountryRequest struct {
	Country string `json:"country"`
}

type transitionRequest struct {
	Phase   string               `json:"phase"`
	Payload *models.PhasePayload `json:"payload,omitempty"`
}

type reopenRequest struct {
	Phase string `json:"phase"`
}

func (h *Handler) handleSelectCountry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID, ok := h.studentID(w, r)
	if !ok {
		return
	}
	var req selectCountryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	country, err := domain.ParseCountry(req.Country)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
		return
	}
	profile, err := h.service.SelectCountry(ctx, studentID, country)
	if err != nil {
		h.logError(ctx, "select country failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, profileResponse(profile))
}

func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID, ok := h.studentID(w, r)
	if !ok {
		return
	}
	profiles, err := h.service.Profiles(ctx, studentID)
	if err != nil {
		h.logError(ctx, "list profiles failed", err)
		shared.WriteError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileResponse(p))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	country, err := domain.ParseCountry(chi.URLParam(r, "country"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
		return
	}
	shared.WriteJSON(w, http.StatusOK, h.service.CountryCatalog(r.Context(), country))
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID, country, ok := h.pair(w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Phase == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "phase is required"))
		return
	}
	outcome, err := h.service.RequestPhaseTransition(ctx, studentID, country, req.Phase, req.Payload)
	if err != nil {
		h.logError(ctx, "transition request failed", err)
		shared.WriteError(w, err)
		return
	}
	writeOutcome(w, outcome)
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID, country, ok := h.pair(w, r)
	if !ok {
		return
	}
	var req reopenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Phase == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "phase is required"))
		return
	}
	outcome, err := h.service.RequestPhaseReopen(ctx, studentID, country, req.Phase)
	if err != nil {
		h.logError(ctx, "reopen request failed", err)
		shared.WriteError(w, err)
		return
	}
	writeOutcome(w, outcome)
}

func (h *Handler) handlePhases(w http.ResponseWriter, r *http.Request) {
	studentID, country, ok := h.pair(w, r)
	if !ok {
		return
	}
	snaps := h.service.PhaseMetadata(r.Context(), studentID, country)
	out := make([]map[string]any, 0, len(snaps))
	for _, m := range snaps {
		out = append(out, metadataResponse(m))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

// writeOutcome maps structured outcomes to transport statuses: applied and
// no-op succeed, document/lock denials conflict, ordering denials are
// unprocessable.
func writeOutcome(w http.ResponseWriter, outcome models.Outcome) {
	body := map[string]any{"outcome": string(outcome.Kind)}
	switch outcome.Kind {
	case models.OutcomeApplied:
		body["new_phase"] = outcome.NewPhase
		meta := make([]map[string]any, 0, len(outcome.Metadata))
		for _, m := range outcome.Metadata {
			meta = append(meta, metadataResponse(m))
		}
		body["metadata"] = meta
		shared.WriteJSON(w, http.StatusOK, body)
	case models.OutcomeNoOp:
		body["new_phase"] = outcome.NewPhase
		shared.WriteJSON(w, http.StatusOK, body)
	case models.OutcomeDeniedMissingDocuments:
		body["phase_label"] = outcome.PhaseLabel
		body["country"] = outcome.Country.String()
		body["missing_documents"] = outcome.MissingTypes
		shared.WriteJSON(w, http.StatusConflict, body)
	case models.OutcomeDeniedLocked:
		body["phase_label"] = outcome.PhaseLabel
		body["reason"] = outcome.Reason
		shared.WriteJSON(w, http.StatusConflict, body)
	default:
		body["reason"] = outcome.Reason
		shared.WriteJSON(w, http.StatusUnprocessableEntity, body)
	}
}

func profileResponse(p *models.Profile) map[string]any {
	return map[string]any{
		"id":            p.ID.String(),
		"student_id":    p.StudentID.String(),
		"country":       p.Country.String(),
		"current_phase": p.CurrentPhase,
		"notes":         p.Notes,
		"created_at":    p.CreatedAt.Format(time.RFC3339),
		"updated_at":    p.UpdatedAt.Format(time.RFC3339),
	}
}

func metadataResponse(m models.PhaseMetadata) map[string]any {
	return map[string]any{
		"phase_key":          m.PhaseKey,
		"status":             string(m.Status),
		"reopen_count":       m.ReopenCount,
		"max_reopen_allowed": m.MaxReopenAllowed,
		"final_edit_allowed": m.FinalEditAllowed,
	}
}

func (h *Handler) studentID(w http.ResponseWriter, r *http.Request) (domain.StudentID, bool) {
	id, err := domain.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid student id"))
		return domain.StudentID{}, false
	}
	return id, true
}

func (h *Handler) pair(w http.ResponseWriter, r *http.Request) (domain.StudentID, domain.CountryCode, bool) {
	studentID, ok := h.studentID(w, r)
	if !ok {
		return domain.StudentID{}, "", false
	}
	country, err := domain.ParseCountry(chi.URLParam(r, "country"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
		return domain.StudentID{}, "", false
	}
	return studentID, country, true
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}
