// Package history keeps a SQLite record of analyses and the commands they
// produced.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("history entry not found")

// Entry is one recorded analysis.
type Entry struct {
	ID          int64     `json:"id"`
	SourceHash  string    `json:"sourceHash"`
	Summary     string    `json:"summary"`
	Errors      []string  `json:"errors"`
	Suggestions []string  `json:"suggestions"`
	Command     string    `json:"command,omitempty"`
	Malformed   bool      `json:"malformed,omitempty"`
	Failure     string    `json:"failure,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HashSource returns the hex SHA-256 of source.
func HashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Store persists entries in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. Use ":memory:" for an
// in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_hash TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		error_count INTEGER NOT NULL DEFAULT 0,
		suggestion_count INTEGER NOT NULL DEFAULT 0,
		errors_json TEXT NOT NULL DEFAULT '[]',
		suggestions_json TEXT NOT NULL DEFAULT '[]',
		command TEXT,
		malformed INTEGER NOT NULL DEFAULT 0,
		failure TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_source_hash ON analyses(source_hash);
	`)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores e and returns its id. A zero CreatedAt is set to now.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	errs, err := marshalList(e.Errors)
	if err != nil {
		return 0, err
	}
	sugg, err := marshalList(e.Suggestions)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (source_hash, summary, error_count, suggestion_count,
			errors_json, suggestions_json, command, malformed, failure, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.SourceHash, e.Summary, len(e.Errors), len(e.Suggestions),
		errs, sugg, nullString(e.Command), e.Malformed, nullString(e.Failure), e.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to record analysis: %w", err)
	}
	return res.LastInsertId()
}

// Get returns the entry with id.
func (s *Store) Get(ctx context.Context, id int64) (Entry, error) {
	row := s.db.QueryRowContext(ctx, selectEntry+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return e, err
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, selectEntry+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const selectEntry = `
	SELECT id, source_hash, summary, errors_json, suggestions_json,
	       command, malformed, failure, created_at
	FROM analyses`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e                Entry
		errs, sugg       string
		command, failure sql.NullString
	)
	if err := row.Scan(&e.ID, &e.SourceHash, &e.Summary, &errs, &sugg,
		&command, &e.Malformed, &failure, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(errs), &e.Errors); err != nil {
		return Entry{}, fmt.Errorf("entry %d: errors: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(sugg), &e.Suggestions); err != nil {
		return Entry{}, fmt.Errorf("entry %d: suggestions: %w", e.ID, err)
	}
	e.Command = command.String
	e.Failure = failure.String
	return e, nil
}

func marshalList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
