package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stepway/internal/document/models"
	"stepway/internal/transport/http/shared"
	"stepway/pkg/domain"
	dErrors "stepway/pkg/domain-errors"
)

// Service is the document surface the handler needs.
type Service interface {
	Record(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, docType models.Type, fileName string) (models.Document, error)
	Review(ctx context.Context, id domain.DocumentID, approved bool) (models.Document, error)
	List(ctx context.Context, studentID domain.StudentID, statuses ...models.Status) ([]models.Document, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/students/{studentID}/documents", h.handleRecord)
	r.Get("/students/{studentID}/documents", h.handleList)
	r.Post("/documents/{documentID}/review", h.handleReview)
}

type recordRequest struct {
	Country  string `json:"country"`
	Type     string `json:"type"`
	FileName string `json:"file_name"`
}

type reviewRequest struct {
	Approved bool `json:"approved"`
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	studentID, err := domain.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid student id"))
		return
	}
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	docType, err := models.ParseType(req.Type)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
		return
	}
	// Country may be empty for shared documents filed once across countries.
	var country domain.CountryCode
	if req.Country != "" {
		country, err = domain.ParseCountry(req.Country)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
			return
		}
	}
	doc, err := h.service.Record(r.Context(), studentID, country, docType, req.FileName)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, documentResponse(doc))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	studentID, err := domain.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid student id"))
		return
	}
	var statuses []models.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
			return
		}
		statuses = append(statuses, status)
	}
	docs, err := h.service.List(r.Context(), studentID, statuses...)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentResponse(d))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid document id"))
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	doc, err := h.service.Review(r.Context(), id, req.Approved)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, documentResponse(doc))
}

func documentResponse(d models.Document) map[string]any {
	resp := map[string]any{
		"id":          d.ID.String(),
		"student_id":  d.StudentID.String(),
		"type":        string(d.Type),
		"status":      string(d.Status),
		"file_name":   d.FileName,
		"uploaded_at": d.UploadedAt.Format(time.RFC3339),
	}
	if !d.Country.IsNil() {
		resp["country"] = d.Country.String()
	}
	if d.ReviewedAt != nil {
		resp["reviewed_at"] = d.ReviewedAt.Format(time.RFC3339)
	}
	return resp
}
