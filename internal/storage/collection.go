package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
)

// NoteRow is one row of a collection's notes relation.
type NoteRow struct {
	ID     string // decimal note id; source ids are 64-bit epoch milliseconds
	Fields string // packed field string
	Tags   string
}

// Collection is a read-only handle on an extracted collection database.
type Collection struct {
	conn *sql.DB
}

// OpenCollection opens the SQLite file at path read-only.
func OpenCollection(path string) (*Collection, error) {
	dsn := (&url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to collection: %w", err)
	}
	return &Collection{conn: db}, nil
}

// Close closes the collection.
func (c *Collection) Close() error {
	return c.conn.Close()
}

// Notes returns every note that has at least one card, ordered by note id.
// Card scheduling columns are not read.
func (c *Collection) Notes(ctx context.Context) ([]NoteRow, error) {
	rows, err := c.conn.QueryContext(ctx, `
		SELECT CAST(n.id AS TEXT), n.flds, n.tags
		FROM notes n
		WHERE EXISTS (SELECT 1 FROM cards c WHERE c.nid = n.id)
		ORDER BY n.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []NoteRow
	for rows.Next() {
		var n NoteRow
		if err := rows.Scan(&n.ID, &n.Fields, &n.Tags); err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}
	return notes, nil
}
