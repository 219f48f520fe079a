package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB is a SQLite-backed progress store.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// LoadProgress returns every stored snapshot for username. An unknown user has
// empty progress.
func (db *DB) LoadProgress(ctx context.Context, username string) (domain.UserProgress, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT card_id, interval, ease_factor, next_review
		FROM progress WHERE username = ?
	`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress for %s: %w", username, err)
	}
	defer rows.Close()

	progress := domain.UserProgress{}
	for rows.Next() {
		var (
			id string
			s  domain.State
		)
		if err := rows.Scan(&id, &s.Interval, &s.EaseFactor, &s.NextReview); err != nil {
			return nil, fmt.Errorf("failed to scan progress row for %s: %w", username, err)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("stored progress for %s, card %s: %w", username, id, err)
		}
		progress[id] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read progress for %s: %w", username, err)
	}
	return progress, nil
}

// SaveProgress upserts every snapshot in p for username in a single transaction.
func (db *DB) SaveProgress(ctx context.Context, username string, p domain.UserProgress) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin progress save for %s: %w", username, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO progress (username, card_id, interval, ease_factor, next_review, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (username, card_id) DO UPDATE SET
			interval = excluded.interval,
			ease_factor = excluded.ease_factor,
			next_review = excluded.next_review,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare progress upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for id, s := range p {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("card %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, username, id, s.Interval, s.EaseFactor, s.NextReview.UTC(), now); err != nil {
			return fmt.Errorf("failed to save progress for card %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit progress for %s: %w", username, err)
	}
	return nil
}
