// Package replstore persists REPL input history to a sqlite file, grounded
// on the teacher's internal/db_manager connection-manager shape, narrowed
// to the one table a REPL needs. Driver: modernc.org/sqlite (pure Go, no
// cgo), per SPEC_FULL.md's domain stack.
package replstore

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"gscript/internal/errors"
)

// Store wraps a sqlite-backed history table of REPL entries.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the history table at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CompileError, "opening repl history %q", path)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	line TEXT NOT NULL,
	created_at TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, errors.CompileError, "creating repl history schema")
	}
	return &Store{db: db}, nil
}

// Append records one line of REPL input.
func (s *Store) Append(line string) error {
	_, err := s.db.Exec(`INSERT INTO history (line, created_at) VALUES (?, ?)`, line, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errors.Wrapf(err, errors.CompileError, "appending repl history entry")
	}
	return nil
}

// Recent returns up to n most recent lines, oldest first.
func (s *Store) Recent(n int) ([]string, error) {
	rows, err := s.db.Query(`SELECT line FROM history ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CompileError, "reading repl history")
	}
	defer rows.Close()
	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, errors.Wrapf(err, errors.CompileError, "scanning repl history row")
		}
		lines = append(lines, line)
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
