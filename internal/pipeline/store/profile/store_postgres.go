package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"stepway/internal/pipeline/models"
	"stepway/pkg/domain"
	"stepway/pkg/platform/sentinel"
)

// PostgresStore persists country profiles in PostgreSQL. Notes are a JSONB
// column keyed by phase key; payload writes patch one key instead of
// replacing the blob.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO country_profiles (id, student_id, country, current_phase, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	notes, err := marshalNotes(p.Notes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query,
		p.ID.String(), p.StudentID.String(), p.Country.String(), p.CurrentPhase, notes, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create country profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, studentID domain.StudentID, country domain.CountryCode) (*models.Profile, error) {
	query := `
		SELECT id, student_id, country, current_phase, notes, created_at, updated_at
		FROM country_profiles
		WHERE student_id = $1 AND country = $2
	`
	p, err := scanProfile(s.db.QueryRowContext(ctx, query, studentID.String(), country.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find country profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListByStudent(ctx context.Context, studentID domain.StudentID) ([]*models.Profile, error) {
	query := `
		SELECT id, student_id, country, current_phase, notes, created_at, updated_at
		FROM country_profiles
		WHERE student_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, studentID.String())
	if err != nil {
		return nil, fmt.Errorf("list country profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan country profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdatePhase(ctx context.Context, id domain.ProfileID, phaseKey string, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE country_profiles SET current_phase = $2, updated_at = $3 WHERE id = $1`,
		id.String(), phaseKey, updatedAt)
	if err != nil {
		return fmt.Errorf("update current phase: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) SavePayload(ctx context.Context, id domain.ProfileID, phaseKey string, payload json.RawMessage) error {
	query := `
		UPDATE country_profiles
		SET notes = jsonb_set(COALESCE(notes, '{}'::jsonb), ARRAY[$2], $3::jsonb)
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, id.String(), phaseKey, string(payload))
	if err != nil {
		return fmt.Errorf("save phase payload: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p          models.Profile
		id         string
		studentID  string
		country    string
		notes      []byte
	)
	if err := row.Scan(&id, &studentID, &country, &p.CurrentPhase, &notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	profileID, err := domain.ParseProfileID(id)
	if err != nil {
		return nil, err
	}
	sid, err := domain.ParseStudentID(studentID)
	if err != nil {
		return nil, err
	}
	p.ID = profileID
	p.StudentID = sid
	p.Country = domain.CountryCode(country)
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &p.Notes); err != nil {
			return nil, fmt.Errorf("decode profile notes: %w", err)
		}
	}
	return &p, nil
}

func marshalNotes(notes map[string]json.RawMessage) ([]byte, error) {
	if notes == nil {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("encode profile notes: %w", err)
	}
	return raw, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
