// Package profile persists ApplicationCountryProfile rows. Stores are pure
// I/O - phase legality and gating rules live in the pipeline service.
package profile

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"stepway/internal/pipeline/models"
	"stepway/pkg/domain"
	"stepway/pkg/platform/sentinel"
)

// InMemory keeps profiles in process. It favors clarity over performance and
// backs unit tests and storeless deployments.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[domain.ProfileID]*models.Profile
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[domain.ProfileID]*models.Profile)}
}

func (s *InMemory) Create(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profiles {
		if existing.StudentID == p.StudentID && existing.Country == p.Country {
			return sentinel.ErrConflict
		}
	}
	s.profiles[p.ID] = clone(p)
	return nil
}

func (s *InMemory) Find(_ context.Context, studentID domain.StudentID, country domain.CountryCode) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.StudentID == studentID && p.Country == country {
			return clone(p), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByStudent(_ context.Context, studentID domain.StudentID) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Profile
	for _, p := range s.profiles {
		if p.StudentID == studentID {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (s *InMemory) UpdatePhase(_ context.Context, id domain.ProfileID, phaseKey string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.CurrentPhase = phaseKey
	p.UpdatedAt = updatedAt
	return nil
}

func (s *InMemory) SavePayload(_ context.Context, id domain.ProfileID, phaseKey string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if p.Notes == nil {
		p.Notes = make(map[string]json.RawMessage)
	}
	p.Notes[phaseKey] = append(json.RawMessage(nil), payload...)
	return nil
}

func clone(p *models.Profile) *models.Profile {
	cp := *p
	if p.Notes != nil {
		cp.Notes = make(map[string]json.RawMessage, len(p.Notes))
		for k, v := range p.Notes {
			cp.Notes[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &cp
}
