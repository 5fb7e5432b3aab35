package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"stepway/internal/document/models"
	"stepway/pkg/domain"
	dErrors "stepway/pkg/domain-errors"
	"stepway/pkg/platform/sentinel"
)

type Store interface {
	Save(ctx context.Context, doc models.Document) error
	FindByID(ctx context.Context, id domain.DocumentID) (models.Document, error)
	ListByStudent(ctx context.Context, studentID domain.StudentID, statuses ...models.Status) ([]models.Document, error)
}

// Service records upload metadata and counselor review outcomes. File bytes
// never pass through here.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Record registers an upload. Country may be empty for uploads filed outside
// any country context; shared document types still count everywhere.
func (s *Service) Record(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, docType models.Type, fileName string) (models.Document, error) {
	if strings.TrimSpace(fileName) == "" {
		return models.Document{}, dErrors.New(dErrors.CodeValidation, "file name is required")
	}
	doc := models.Document{
		ID:         domain.NewDocumentID(),
		StudentID:  studentID,
		Country:    country,
		Type:       docType,
		Status:     models.StatusPending,
		FileName:   fileName,
		UploadedAt: time.Now(),
	}
	if err := s.store.Save(ctx, doc); err != nil {
		return models.Document{}, dErrors.Wrap(dErrors.CodeInternal, "failed to record document", err)
	}
	return doc, nil
}

// Review applies a counselor verdict to an uploaded document.
func (s *Service) Review(ctx context.Context, id domain.DocumentID, approved bool) (models.Document, error) {
	doc, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Document{}, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return models.Document{}, dErrors.Wrap(dErrors.CodeInternal, "failed to load document", err)
	}
	now := time.Now()
	doc.ReviewedAt = &now
	if approved {
		doc.Status = models.StatusApproved
	} else {
		doc.Status = models.StatusRejected
	}
	if err := s.store.Save(ctx, doc); err != nil {
		return models.Document{}, dErrors.Wrap(dErrors.CodeInternal, "failed to save review", err)
	}
	return doc, nil
}

// List returns the student's documents, optionally filtered by status.
func (s *Service) List(ctx context.Context, studentID domain.StudentID, statuses ...models.Status) ([]models.Document, error) {
	docs, err := s.store.ListByStudent(ctx, studentID, statuses...)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list documents", err)
	}
	return docs, nil
}
