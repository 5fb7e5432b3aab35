//go:build integration

// Package containers manages shared test containers for integration tests.
// Containers are started once per test binary and reused across suites; Ryuk
// reaps them when the run ends.
package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema mirrors the production tables. Integration tests truncate between
// cases instead of recreating.
const schema = `
CREATE TABLE IF NOT EXISTS students (
	id UUID PRIMARY KEY,
	full_name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS country_profiles (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL,
	country TEXT NOT NULL,
	current_phase TEXT NOT NULL,
	notes JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (student_id, country)
);

CREATE TABLE IF NOT EXISTS phase_metadata (
	student_id UUID NOT NULL,
	country TEXT NOT NULL,
	phase_key TEXT NOT NULL,
	status TEXT NOT NULL,
	reopen_count INT NOT NULL DEFAULT 0,
	max_reopen_allowed INT NOT NULL DEFAULT 2,
	final_edit_allowed BOOLEAN NOT NULL DEFAULT TRUE,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (student_id, country, phase_key)
);

CREATE TABLE IF NOT EXISTS documents (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL,
	country TEXT,
	doc_type TEXT NOT NULL,
	status TEXT NOT NULL,
	file_name TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL,
	reviewed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS audit_events (
	id BIGSERIAL PRIMARY KEY,
	ts TIMESTAMPTZ NOT NULL,
	student_id UUID NOT NULL,
	country TEXT NOT NULL,
	action TEXT NOT NULL,
	from_phase TEXT,
	to_phase TEXT,
	outcome TEXT,
	reason TEXT
);
`

// PostgresContainer wraps a testcontainers Postgres instance with an open
// connection pool.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// TruncateTables empties the named tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE %s", strings.Join(tables, ", ")))
	return err
}

// Manager hands out shared containers. Suites call GetManager().GetPostgres
// in SetupSuite; the first caller pays the startup cost.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
	redis    *RedisContainer
}

var (
	managerOnce sync.Once
	manager     *Manager
)

func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postgres != nil {
		return m.postgres
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("stepway_test"),
		tcpostgres.WithUsername("stepway"),
		tcpostgres.WithPassword("stepway"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	m.postgres = &PostgresContainer{Container: container, DSN: dsn, DB: db}
	return m.postgres
}
