// Package phasemeta persists PhaseMetadata rows. The Unavailable
// implementation models deployments where the metadata table was never
// provisioned; the engine degrades instead of failing.
package phasemeta

import (
	"context"
	"sort"
	"sync"
	"time"

	"stepway/internal/pipeline/models"
	"stepway/pkg/domain"
)

type tripleKey struct {
	studentID domain.StudentID
	country   domain.CountryCode
	phaseKey  string
}

// InMemory tracks metadata in process with full reopen support.
type InMemory struct {
	mu   sync.RWMutex
	rows map[tripleKey]models.PhaseMetadata
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[tripleKey]models.PhaseMetadata)}
}

func (s *InMemory) SupportsReopenTracking() bool {
	return true
}

func (s *InMemory) GetOrCreate(_ context.Context, studentID domain.StudentID, country domain.CountryCode, phaseKey string, def models.PhaseStatus) (models.PhaseMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tripleKey{studentID, country, phaseKey}
	if row, ok := s.rows[key]; ok {
		return row, nil
	}
	row := models.NewPhaseMetadata(studentID, country, phaseKey, def)
	row.UpdatedAt = time.Now()
	s.rows[key] = row
	return row, nil
}

func (s *InMemory) Update(_ context.Context, meta models.PhaseMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta.UpdatedAt = time.Now()
	s.rows[tripleKey{meta.StudentID, meta.Country, meta.PhaseKey}] = meta
	return nil
}

func (s *InMemory) ListByProfile(_ context.Context, studentID domain.StudentID, country domain.CountryCode) ([]models.PhaseMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PhaseMetadata
	for key, row := range s.rows {
		if key.studentID == studentID && key.country == country {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PhaseKey < out[j].PhaseKey })
	return out, nil
}
