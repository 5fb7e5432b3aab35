package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"stepway/internal/student/models"
	"stepway/pkg/domain"
	"stepway/pkg/platform/sentinel"
)

// PostgresStore persists students in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, student models.Student) error {
	query := `
		INSERT INTO students (id, full_name, email, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		student.ID.String(), student.FullName, student.Email, student.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.StudentID) (models.Student, error) {
	query := `
		SELECT id, full_name, email, created_at
		FROM students
		WHERE id = $1
	`
	var (
		student models.Student
		rawID   string
	)
	err := s.db.QueryRowContext(ctx, query, id.String()).
		Scan(&rawID, &student.FullName, &student.Email, &student.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Student{}, sentinel.ErrNotFound
		}
		return models.Student{}, fmt.Errorf("find student: %w", err)
	}
	sid, err := domain.ParseStudentID(rawID)
	if err != nil {
		return models.Student{}, err
	}
	student.ID = sid
	return student, nil
}
