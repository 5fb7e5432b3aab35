//go:build integration

package phasemeta_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"stepway/internal/pipeline/models"
	"stepway/internal/pipeline/store/phasemeta"
	"stepway/pkg/domain"
	"stepway/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *phasemeta.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = phasemeta.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "phase_metadata"))
}

func (s *PostgresStoreSuite) TestGetOrCreateIsIdempotent() {
	ctx := context.Background()
	studentID := domain.NewStudentID()

	first, err := s.store.GetOrCreate(ctx, studentID, domain.CountryUSA, "INTERVIEW", models.PhaseCurrent)
	s.Require().NoError(err)
	s.Equal(models.PhaseCurrent, first.Status)
	s.Equal(models.DefaultMaxReopen, first.MaxReopenAllowed)

	second, err := s.store.GetOrCreate(ctx, studentID, domain.CountryUSA, "INTERVIEW", models.PhasePending)
	s.Require().NoError(err)
	s.Equal(models.PhaseCurrent, second.Status, "existing row wins over the new default")
}

func (s *PostgresStoreSuite) TestUpdatePersistsBudgetState() {
	ctx := context.Background()
	studentID := domain.NewStudentID()

	meta, err := s.store.GetOrCreate(ctx, studentID, domain.CountryUK, "CAS_ISSUANCE", models.PhaseCompleted)
	s.Require().NoError(err)

	meta.Status = models.PhaseLocked
	meta.ReopenCount = models.DefaultMaxReopen
	meta.FinalEditAllowed = false
	s.Require().NoError(s.store.Update(ctx, meta))

	got, err := s.store.GetOrCreate(ctx, studentID, domain.CountryUK, "CAS_ISSUANCE", models.PhasePending)
	s.Require().NoError(err)
	s.Equal(models.PhaseLocked, got.Status)
	s.Equal(models.DefaultMaxReopen, got.ReopenCount)
	s.False(got.FinalEditAllowed)
}

func (s *PostgresStoreSuite) TestListByProfileScopesToPair() {
	ctx := context.Background()
	studentID := domain.NewStudentID()

	for _, key := range []string{"DOCUMENT_COLLECTION", "INTERVIEW"} {
		_, err := s.store.GetOrCreate(ctx, studentID, domain.CountryUSA, key, models.PhasePending)
		s.Require().NoError(err)
	}
	_, err := s.store.GetOrCreate(ctx, studentID, domain.CountryUK, "INTERVIEW", models.PhasePending)
	s.Require().NoError(err)

	rows, err := s.store.ListByProfile(ctx, studentID, domain.CountryUSA)
	s.Require().NoError(err)
	s.Len(rows, 2)
	for _, row := range rows {
		s.Equal(domain.CountryUSA, row.Country)
	}
}
