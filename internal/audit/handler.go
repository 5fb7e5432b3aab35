package audit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stepway/internal/transport/http/shared"
	"stepway/pkg/domain"
	dErrors "stepway/pkg/domain-errors"
)

// Handler exposes the persisted trail for counselor inspection.
type Handler struct {
	reader *Reader
	logger *slog.Logger
}

func NewHandler(reader *Reader, logger *slog.Logger) *Handler {
	return &Handler{reader: reader, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/students/{studentID}/audit", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	studentID, err := domain.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid student id"))
		return
	}
	events, err := h.reader.ListByStudent(r.Context(), studentID)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "failed to list audit events", err))
		return
	}
	out := make([]map[string]any, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse(e))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"events": out})
}

func eventResponse(e Event) map[string]any {
	body := map[string]any{
		"timestamp":  e.Timestamp.Format(time.RFC3339),
		"student_id": e.StudentID.String(),
		"country":    e.Country.String(),
		"action":     e.Action,
		"outcome":    e.Outcome,
	}
	if e.FromPhase != "" {
		body["from_phase"] = e.FromPhase
	}
	if e.ToPhase != "" {
		body["to_phase"] = e.ToPhase
	}
	if e.Reason != "" {
		body["reason"] = e.Reason
	}
	return body
}
