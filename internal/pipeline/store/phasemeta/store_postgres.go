package phasemeta

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stepway/internal/pipeline/models"
	"stepway/pkg/domain"
)

// PostgresStore persists phase metadata in PostgreSQL. This store is pure
// I/O - reopen budgets and lock rules belong to the reopen policy.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SupportsReopenTracking() bool {
	return true
}

// GetOrCreate retrieves an existing row or inserts the lazy default. The
// upsert keeps concurrent first references from racing.
func (s *PostgresStore) GetOrCreate(ctx context.Context, studentID domain.StudentID, country domain.CountryCode, phaseKey string, def models.PhaseStatus) (models.PhaseMetadata, error) {
	query := `
		INSERT INTO phase_metadata (student_id, country, phase_key, status, reopen_count, max_reopen_allowed, final_edit_allowed, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, TRUE, $6)
		ON CONFLICT (student_id, country, phase_key) DO UPDATE SET
			student_id = EXCLUDED.student_id
		RETURNING student_id, country, phase_key, status, reopen_count, max_reopen_allowed, final_edit_allowed, updated_at
	`
	meta, err := scanMetadata(s.db.QueryRowContext(ctx, query,
		studentID.String(), country.String(), phaseKey, string(def), models.DefaultMaxReopen, time.Now()))
	if err != nil {
		return models.PhaseMetadata{}, fmt.Errorf("get or create phase metadata: %w", err)
	}
	return meta, nil
}

func (s *PostgresStore) Update(ctx context.Context, meta models.PhaseMetadata) error {
	query := `
		INSERT INTO phase_metadata (student_id, country, phase_key, status, reopen_count, max_reopen_allowed, final_edit_allowed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (student_id, country, phase_key) DO UPDATE SET
			status = EXCLUDED.status,
			reopen_count = EXCLUDED.reopen_count,
			max_reopen_allowed = EXCLUDED.max_reopen_allowed,
			final_edit_allowed = EXCLUDED.final_edit_allowed,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		meta.StudentID.String(), meta.Country.String(), meta.PhaseKey,
		string(meta.Status), meta.ReopenCount, meta.MaxReopenAllowed, meta.FinalEditAllowed, time.Now())
	if err != nil {
		return fmt.Errorf("update phase metadata: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByProfile(ctx context.Context, studentID domain.StudentID, country domain.CountryCode) ([]models.PhaseMetadata, error) {
	query := `
		SELECT student_id, country, phase_key, status, reopen_count, max_reopen_allowed, final_edit_allowed, updated_at
		FROM phase_metadata
		WHERE student_id = $1 AND country = $2
		ORDER BY phase_key
	`
	rows, err := s.db.QueryContext(ctx, query, studentID.String(), country.String())
	if err != nil {
		return nil, fmt.Errorf("list phase metadata: %w", err)
	}
	defer rows.Close()

	var out []models.PhaseMetadata
	for rows.Next() {
		meta, err := scanMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("scan phase metadata: %w", err)
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row rowScanner) (models.PhaseMetadata, error) {
	var (
		meta      models.PhaseMetadata
		studentID string
		country   string
		status    string
	)
	err := row.Scan(&studentID, &country, &meta.PhaseKey, &status,
		&meta.ReopenCount, &meta.MaxReopenAllowed, &meta.FinalEditAllowed, &meta.UpdatedAt)
	if err != nil {
		return models.PhaseMetadata{}, err
	}
	sid, err := domain.ParseStudentID(studentID)
	if err != nil {
		return models.PhaseMetadata{}, err
	}
	parsed, err := models.ParsePhaseStatus(status)
	if err != nil {
		return models.PhaseMetadata{}, err
	}
	meta.StudentID = sid
	meta.Country = domain.CountryCode(country)
	meta.Status = parsed
	return meta, nil
}
