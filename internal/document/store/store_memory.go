// Package store persists document upload metadata.
package store

import (
	"context"
	"sort"
	"sync"

	"stepway/internal/document/models"
	"stepway/pkg/domain"
	"stepway/pkg/platform/sentinel"
)

// InMemory keeps document metadata in process.
type InMemory struct {
	mu   sync.RWMutex
	docs map[domain.DocumentID]models.Document
}

func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[domain.DocumentID]models.Document)}
}

func (s *InMemory) Save(_ context.Context, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.DocumentID) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doc, ok := s.docs[id]; ok {
		return doc, nil
	}
	return models.Document{}, sentinel.ErrNotFound
}

// ListByStudent returns the student's documents, optionally filtered to the
// given statuses. An empty filter returns everything.
func (s *InMemory) ListByStudent(_ context.Context, studentID domain.StudentID, statuses ...models.Status) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[models.Status]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}
	var out []models.Document
	for _, doc := range s.docs {
		if doc.StudentID != studentID {
			continue
		}
		if len(wanted) > 0 && !wanted[doc.Status] {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}
