// internal/infra/database/sqlite_notified_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"enrollment_notifier/internal/domain/enrollment"
)

const sqliteNotifiedSchema = `CREATE TABLE IF NOT EXISTS notified_classes (
    class_id    TEXT PRIMARY KEY,
    notified_at INTEGER NOT NULL
)`

type SQLiteNotifiedRepository struct {
	db *sql.DB
}

var _ enrollment.NotifiedRepository = (*SQLiteNotifiedRepository)(nil)

func NewSQLiteNotifiedRepository(db *sql.DB) *SQLiteNotifiedRepository {
	return &SQLiteNotifiedRepository{db: db}
}

func (r *SQLiteNotifiedRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteNotifiedSchema); err != nil {
		return fmt.Errorf("error creating notified_classes table: %w", err)
	}
	return nil
}

func (r *SQLiteNotifiedRepository) Contains(ctx context.Context, classID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM notified_classes WHERE class_id = ?`, strings.TrimSpace(classID)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("error checking notified class %s: %w", classID, err)
	}
	return n > 0, nil
}

func (r *SQLiteNotifiedRepository) Add(ctx context.Context, classID string) error {
	id := strings.TrimSpace(classID)
	if id == "" {
		return ErrEmptyClassID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notified_classes (class_id, notified_at) VALUES (?, ?) ON CONFLICT(class_id) DO NOTHING`,
		id, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("error recording notified class %s: %w", id, err)
	}
	return nil
}
