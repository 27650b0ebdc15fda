// internal/infra/database/postgres_notified_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"enrollment_notifier/internal/domain/enrollment"
)

// ErrEmptyClassID is returned when asked to record a blank class ID.
var ErrEmptyClassID = errors.New("class id is empty")

const postgresNotifiedSchema = `CREATE TABLE IF NOT EXISTS notified_classes (
    class_id    TEXT PRIMARY KEY,
    notified_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type PostgresNotifiedRepository struct {
	db *sql.DB
}

var _ enrollment.NotifiedRepository = (*PostgresNotifiedRepository)(nil)

func NewPostgresNotifiedRepository(db *sql.DB) *PostgresNotifiedRepository {
	return &PostgresNotifiedRepository{db: db}
}

// EnsureSchema creates the notified_classes table if it does not exist.
func (r *PostgresNotifiedRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, postgresNotifiedSchema); err != nil {
		return fmt.Errorf("error creating notified_classes table: %w", err)
	}
	return nil
}

func (r *PostgresNotifiedRepository) Contains(ctx context.Context, classID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM notified_classes WHERE class_id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(classID)).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking notified class %s: %w", classID, err)
	}
	return exists, nil
}

// Add inserts classID; an existing row is left untouched. The statement runs
// in autocommit mode, so the row is durable once Add returns.
func (r *PostgresNotifiedRepository) Add(ctx context.Context, classID string) error {
	id := strings.TrimSpace(classID)
	if id == "" {
		return ErrEmptyClassID
	}
	query := `INSERT INTO notified_classes (class_id) VALUES ($1) ON CONFLICT (class_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("error recording notified class %s: %w", id, err)
	}
	return nil
}
