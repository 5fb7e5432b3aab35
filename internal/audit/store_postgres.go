package audit

import (
	"context"
	"database/sql"
	"fmt"

	"stepway/pkg/domain"
)

// PostgresStore persists the trail in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (ts, student_id, country, action, from_phase, to_phase, outcome, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp, event.StudentID.String(), event.Country.String(),
		event.Action, event.FromPhase, event.ToPhase, event.Outcome, event.Reason)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByStudent(ctx context.Context, studentID domain.StudentID) ([]Event, error) {
	query := `
		SELECT ts, student_id, country, action, from_phase, to_phase, outcome, reason
		FROM audit_events
		WHERE student_id = $1
		ORDER BY ts
	`
	rows, err := s.db.QueryContext(ctx, query, studentID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e     Event
			rawID string
			cc    string
		)
		if err := rows.Scan(&e.Timestamp, &rawID, &cc, &e.Action, &e.FromPhase, &e.ToPhase, &e.Outcome, &e.Reason); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		sid, err := domain.ParseStudentID(rawID)
		if err != nil {
			return nil, err
		}
		e.StudentID = sid
		e.Country = domain.CountryCode(cc)
		out = append(out, e)
	}
	return out, rows.Err()
}
