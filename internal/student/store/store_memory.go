// Package store persists student records.
package store

import (
	"context"
	"strings"
	"sync"

	"stepway/internal/student/models"
	"stepway/pkg/domain"
	"stepway/pkg/platform/sentinel"
)

// InMemory keeps students in process, enforcing case-insensitive email
// uniqueness.
type InMemory struct {
	mu       sync.RWMutex
	students map[domain.StudentID]models.Student
	byEmail  map[string]domain.StudentID
}

func NewInMemory() *InMemory {
	return &InMemory{
		students: make(map[domain.StudentID]models.Student),
		byEmail:  make(map[string]domain.StudentID),
	}
}

func (s *InMemory) Create(_ context.Context, student models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(student.Email)
	if _, taken := s.byEmail[email]; taken {
		return sentinel.ErrConflict
	}
	s.students[student.ID] = student
	s.byEmail[email] = student.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.StudentID) (models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if student, ok := s.students[id]; ok {
		return student, nil
	}
	return models.Student{}, sentinel.ErrNotFound
}
