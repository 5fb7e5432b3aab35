package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"stepway/internal/document/models"
	"stepway/pkg/domain"
	"stepway/pkg/platform/sentinel"
)

// PostgresStore persists document metadata in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, doc models.Document) error {
	query := `
		INSERT INTO documents (id, student_id, country, doc_type, status, file_name, uploaded_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			reviewed_at = EXCLUDED.reviewed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		doc.ID.String(), doc.StudentID.String(), doc.Country.String(),
		string(doc.Type), string(doc.Status), doc.FileName, doc.UploadedAt, doc.ReviewedAt)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.DocumentID) (models.Document, error) {
	query := `
		SELECT id, student_id, country, doc_type, status, file_name, uploaded_at, reviewed_at
		FROM documents
		WHERE id = $1
	`
	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Document{}, sentinel.ErrNotFound
		}
		return models.Document{}, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) ListByStudent(ctx context.Context, studentID domain.StudentID, statuses ...models.Status) ([]models.Document, error) {
	query := `
		SELECT id, student_id, country, doc_type, status, file_name, uploaded_at, reviewed_at
		FROM documents
		WHERE student_id = $1
		  AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY uploaded_at
	`
	filter := make([]string, len(statuses))
	for i, st := range statuses {
		filter[i] = string(st)
	}
	rows, err := s.db.QueryContext(ctx, query, studentID.String(), pq.Array(filter))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (models.Document, error) {
	var (
		doc     models.Document
		rawID   string
		rawSID  string
		country string
		docType string
		status  string
	)
	err := row.Scan(&rawID, &rawSID, &country, &docType, &status, &doc.FileName, &doc.UploadedAt, &doc.ReviewedAt)
	if err != nil {
		return models.Document{}, err
	}
	id, err := domain.ParseDocumentID(rawID)
	if err != nil {
		return models.Document{}, err
	}
	sid, err := domain.ParseStudentID(rawSID)
	if err != nil {
		return models.Document{}, err
	}
	parsedType, err := models.ParseType(docType)
	if err != nil {
		return models.Document{}, err
	}
	parsedStatus, err := models.ParseStatus(status)
	if err != nil {
		return models.Document{}, err
	}
	doc.ID = id
	doc.StudentID = sid
	doc.Country = domain.CountryCode(country)
	doc.Type = parsedType
	doc.Status = parsedStatus
	return doc, nil
}
