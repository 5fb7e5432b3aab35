package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stepway/internal/student/models"
	"stepway/internal/transport/http/shared"
	"stepway/pkg/domain"
	dErrors "stepway/pkg/domain-errors"
)

// Service is the student surface the handler needs.
type Service interface {
	Create(ctx context.Context, fullName, email string) (models.Student, error)
	Get(ctx context.Context, id domain.StudentID) (models.Student, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/students", h.handleCreate)
	r.Get("/students/{studentID}", h.handleGet)
}

type createRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	student, err := h.service.Create(r.Context(), req.FullName, req.Email)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, studentResponse(student))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid student id"))
		return
	}
	student, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, studentResponse(student))
}

func studentResponse(s models.Student) map[string]any {
	return map[string]any{
		"id":         s.ID.String(),
		"full_name":  s.FullName,
		"email":      s.Email,
		"created_at": s.CreatedAt.Format(time.RFC3339),
	}
}
