// Package store persists vocabulary table snapshots in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/okanehara/vocabdex/pkg/vocab"
)

const migrationsSQL = `
CREATE TABLE IF NOT EXISTS entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	term TEXT NOT NULL,
	reading TEXT NOT NULL DEFAULT '',
	meaning TEXT NOT NULL DEFAULT '',
	example TEXT NOT NULL DEFAULT '',
	jlpt TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL,
	UNIQUE(term, reading)
);

CREATE INDEX IF NOT EXISTS idx_entries_position ON entries(position)
`

// Store wraps a SQLite connection holding one vocabulary table snapshot.
type Store struct {
	conn *sql.DB
}

// Open opens (creating if needed) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	s := &Store{conn: conn}
	if err := s.init(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) init() error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, stmt := range stmts {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.conn.Exec(stmt); err != nil {
			return fmt.Errorf("run migration: %w", err)
		}
	}
	return nil
}

// Save replaces the stored snapshot with rows, preserving their order in
// the position column. The replace is transactional: a failure leaves the
// previous snapshot intact.
func (s *Store) Save(rows []vocab.Row) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO entries (term, reading, meaning, example, jlpt, position) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		r = r.Canonical()
		if r.Term == "" {
			continue
		}
		if _, err := stmt.Exec(r.Term, r.Reading, r.Meaning, r.Example, r.JLPT, i); err != nil {
			return fmt.Errorf("insert entry %q: %w", r.Term, err)
		}
	}
	return tx.Commit()
}

// Load returns the stored snapshot in its saved order. An empty database
// yields an empty slice and no error.
func (s *Store) Load() ([]vocab.Row, error) {
	rows, err := s.conn.Query(`SELECT term, reading, meaning, example, jlpt FROM entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var out []vocab.Row
	for rows.Next() {
		var r vocab.Row
		if err := rows.Scan(&r.Term, &r.Reading, &r.Meaning, &r.Example, &r.JLPT); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count reports how many entries the snapshot holds.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
