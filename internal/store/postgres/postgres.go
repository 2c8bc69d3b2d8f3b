// Package postgres implements store.Store backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/history/internal/model"
	"github.com/alfredjeanlab/history/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store.
type PostgresStore struct {
	db *sql.DB
}

var _ store.Store = (*PostgresStore)(nil)

// New opens the database at databaseURL, configures the pool and applies
// pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewWithDB wraps an already-open database without migrating it.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: "history_schema_migrations"})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateTask(ctx context.Context, task *model.ResearchTask) error {
	return queryCreateTask(ctx, s.db, task)
}

func (s *PostgresStore) GetTask(ctx context.Context, token string) (*model.ResearchTask, error) {
	return queryGetTask(ctx, s.db, token)
}

func (s *PostgresStore) ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.ResearchTask, int, error) {
	return queryListTasks(ctx, s.db, filter)
}

func (s *PostgresStore) UpdateTaskStatus(ctx context.Context, token string, status model.TaskStatus) error {
	return queryUpdateTaskStatus(ctx, s.db, token, status)
}

func (s *PostgresStore) GetUsage(ctx context.Context, actor string, windowStart time.Time) (int, error) {
	return queryGetUsage(ctx, s.db, actor, windowStart)
}

func (s *PostgresStore) IncrementUsage(ctx context.Context, actor string, windowStart time.Time) (int, error) {
	return queryIncrementUsage(ctx, s.db, actor, windowStart)
}
