package phasemeta

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepway/internal/pipeline/models"
	"stepway/pkg/domain"
)

func TestInMemoryGetOrCreate(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	studentID := domain.NewStudentID()

	meta, err := store.GetOrCreate(ctx, studentID, domain.CountryUSA, "INTERVIEW", models.PhaseCurrent)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseCurrent, meta.Status)
	assert.Equal(t, models.DefaultMaxReopen, meta.MaxReopenAllowed)
	assert.True(t, meta.FinalEditAllowed)

	// A second call returns the stored row, ignoring the new default.
	again, err := store.GetOrCreate(ctx, studentID, domain.CountryUSA, "INTERVIEW", models.PhasePending)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseCurrent, again.Status)
}

func TestInMemoryTripleIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	studentID := domain.NewStudentID()

	_, err := store.GetOrCreate(ctx, studentID, domain.CountryUSA, "INTERVIEW", models.PhaseCurrent)
	require.NoError(t, err)
	// Same phase key under another country is a distinct row.
	meta, err := store.GetOrCreate(ctx, studentID, domain.CountryUK, "INTERVIEW", models.PhasePending)
	require.NoError(t, err)
	assert.Equal(t, models.PhasePending, meta.Status)
}

func TestInMemoryUpdateAndList(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	studentID := domain.NewStudentID()

	for _, key := range []string{"B_PHASE", "A_PHASE", "C_PHASE"} {
		_, err := store.GetOrCreate(ctx, studentID, domain.CountryUSA, key, models.PhasePending)
		require.NoError(t, err)
	}

	meta := models.NewPhaseMetadata(studentID, domain.CountryUSA, "B_PHASE", models.PhaseCompleted)
	meta.ReopenCount = 1
	require.NoError(t, store.Update(ctx, meta))

	rows, err := store.ListByProfile(ctx, studentID, domain.CountryUSA)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "A_PHASE", rows[0].PhaseKey, "listing is ordered by phase key")
	assert.Equal(t, models.PhaseCompleted, rows[1].Status)
	assert.Equal(t, 1, rows[1].ReopenCount)

	other, err := store.ListByProfile(ctx, studentID, domain.CountryUK)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestUnavailableDegrades(t *testing.T) {
	ctx := context.Background()
	store := NewUnavailable()
	studentID := domain.NewStudentID()

	assert.False(t, store.SupportsReopenTracking())

	meta, err := store.GetOrCreate(ctx, studentID, domain.CountryUSA, "INTERVIEW", models.PhaseCurrent)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseCurrent, meta.Status)

	// Writes are accepted and discarded.
	meta.ReopenCount = 5
	require.NoError(t, store.Update(ctx, meta))
	again, err := store.GetOrCreate(ctx, studentID, domain.CountryUSA, "INTERVIEW", models.PhaseCurrent)
	require.NoError(t, err)
	assert.Equal(t, 0, again.ReopenCount)

	rows, err := store.ListByProfile(ctx, studentID, domain.CountryUSA)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
