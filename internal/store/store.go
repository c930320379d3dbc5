// Package store persists extraction results in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound  = errors.New("extraction not found")
	ErrDuplicate = errors.New("extraction already stored for this content and kind")
)

// Extraction is one stored run of an extractor over a document.
type Extraction struct {
	ID          string          `json:"id"`
	DocID       string          `json:"doc_id"`
	Filename    string          `json:"filename"`
	Kind        string          `json:"kind"`
	ContentHash string          `json:"content_hash"`
	EntryCount  int             `json:"entry_count"`
	Summary     string          `json:"summary"`
	Result      json.RawMessage `json:"result"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Document groups the extractions stored under one doc_id.
type Document struct {
	DocID     string    `json:"doc_id"`
	Filename  string    `json:"filename"`
	Kinds     []string  `json:"kinds"`
	Entries   int       `json:"entries"`
	CreatedAt time.Time `json:"created_at"`
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and applies the schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts e. CreatedAt defaults to now.
func (s *Store) Save(ctx context.Context, e Extraction) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if len(e.Result) == 0 {
		e.Result = json.RawMessage("{}")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO extractions (id, doc_id, filename, kind, content_hash, entry_count, summary, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.DocID, e.Filename, e.Kind, e.ContentHash, e.EntryCount, e.Summary,
		string(e.Result), e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicate
		}
		return fmt.Errorf("insert extraction: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, doc_id, filename, kind, content_hash, entry_count, summary, result_json, created_at FROM extractions`

// Get returns the extraction with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Extraction, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	return scanOne(row)
}

// FindByHash returns the extraction of kind stored for contentHash.
func (s *Store) FindByHash(ctx context.Context, contentHash, kind string) (*Extraction, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE content_hash = ? AND kind = ?`, contentHash, kind)
	return scanOne(row)
}

// GetByDocID returns every extraction for a document, oldest first.
func (s *Store) GetByDocID(ctx context.Context, docID string) ([]Extraction, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE doc_id = ? ORDER BY created_at ASC, kind ASC`, docID)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}
	return scanAll(rows)
}

// List returns documents newest first. A non-positive limit means 100.
func (s *Store) List(ctx context.Context, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, MIN(filename), GROUP_CONCAT(kind), SUM(entry_count), MIN(created_at)
		FROM extractions
		GROUP BY doc_id
		ORDER BY MAX(created_at) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var kinds, created string
		if err := rows.Scan(&d.DocID, &d.Filename, &kinds, &d.Entries, &created); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Kinds = strings.Split(kinds, ",")
		slices.Sort(d.Kinds)
		d.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Delete removes every extraction for docID and reports how many went.
func (s *Store) Delete(ctx context.Context, docID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM extractions WHERE doc_id = ?`, docID)
	if err != nil {
		return 0, fmt.Errorf("delete extractions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(sc scanner) (*Extraction, error) {
	var e Extraction
	var result, created string
	if err := sc.Scan(&e.ID, &e.DocID, &e.Filename, &e.Kind, &e.ContentHash,
		&e.EntryCount, &e.Summary, &result, &created); err != nil {
		return nil, err
	}
	e.Result = json.RawMessage(result)
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	e.CreatedAt = t
	return &e, nil
}

func scanOne(row *sql.Row) (*Extraction, error) {
	e, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan extraction: %w", err)
	}
	return e, nil
}

func scanAll(rows *sql.Rows) ([]Extraction, error) {
	defer rows.Close()
	var out []Extraction
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan extraction: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
