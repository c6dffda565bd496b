// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists scan results in a SQLite database so snippet
// history and full-text search survive across runs. The catalog is purely
// observational: extraction never consults it, and losing it costs nothing
// but history.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/snipper/internal/run"
	"github.com/pdiddy/snipper/pkg/types"
)

const dbFile = "snipper.db"

// Store manages the snippet catalog SQLite database.
type Store struct {
	db         *sql.DB
	catalogDir string
	maxResults int
}

// NewStore opens or creates the catalog database at
// catalogDir/snipper.db, creating the schema if it does not exist.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.CatalogDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dbPath := filepath.Join(cfg.CatalogDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		catalogDir: cfg.CatalogDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS snippets (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			tag TEXT NOT NULL UNIQUE,
			active INTEGER NOT NULL,
			comment TEXT,
			source_file TEXT,
			line INTEGER,
			target TEXT,
			action TEXT,
			referenced INTEGER,
			extracted INTEGER,
			body TEXT,
			first_seen TEXT,
			last_seen TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snippets_source ON snippets(source_file)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started TEXT NOT NULL,
			mode TEXT NOT NULL,
			snippets INTEGER,
			written INTEGER,
			captured INTEGER,
			preserved INTEGER,
			unresolved INTEGER,
			orphans INTEGER
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='snippets_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE snippets_fts USING fts5(tag, body, content=snippets, content_rowid=rowid)`,
			`CREATE TRIGGER snippets_ai AFTER INSERT ON snippets BEGIN
				INSERT INTO snippets_fts(rowid, tag, body) VALUES (new.rowid, new.tag, new.body);
			END`,
			`CREATE TRIGGER snippets_ad AFTER DELETE ON snippets BEGIN
				INSERT INTO snippets_fts(snippets_fts, rowid, tag, body) VALUES('delete', old.rowid, old.tag, old.body);
			END`,
			`CREATE TRIGGER snippets_au AFTER UPDATE ON snippets BEGIN
				INSERT INTO snippets_fts(snippets_fts, rowid, tag, body) VALUES('delete', old.rowid, old.tag, old.body);
				INSERT INTO snippets_fts(rowid, tag, body) VALUES (new.rowid, new.tag, new.body);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// StoreReport upserts every snippet from the report and records the run,
// in one transaction. A snippet's first_seen survives updates.
func (s *Store) StoreReport(ctx context.Context, report *run.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snippets (tag, active, comment, source_file, line, target, action,
			referenced, extracted, body, first_seen, last_seen)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tag) DO UPDATE SET
			active=excluded.active, comment=excluded.comment,
			source_file=excluded.source_file, line=excluded.line,
			target=excluded.target, action=excluded.action,
			referenced=excluded.referenced, extracted=excluded.extracted,
			body=excluded.body, last_seen=excluded.last_seen`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, row := range report.Snippets {
		_, err := stmt.ExecContext(ctx,
			row.Tag, row.Active, row.Comment, row.File, row.Line, row.Target,
			string(row.Action), row.Referenced, row.Extracted, row.Body, now, now,
		)
		if err != nil {
			return fmt.Errorf("upserting snippet %q: %w", row.Tag, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (started, mode, snippets, written, captured, preserved, unresolved, orphans)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		now, report.Mode, report.Summary.Snippets, report.Summary.Written,
		report.Summary.Captured, report.Summary.Preserved,
		report.Summary.Unresolved, report.Summary.Orphans,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	return tx.Commit()
}

// Entry is one cataloged snippet.
type Entry struct {
	Tag        string `json:"tag" yaml:"tag"`
	Active     bool   `json:"active" yaml:"active"`
	Comment    string `json:"comment,omitempty" yaml:"comment,omitempty"`
	File       string `json:"file" yaml:"file"`
	Line       int    `json:"line" yaml:"line"`
	Target     string `json:"target" yaml:"target"`
	Action     string `json:"action" yaml:"action"`
	Referenced bool   `json:"referenced" yaml:"referenced"`
	Extracted  bool   `json:"extracted" yaml:"extracted"`
	Body       string `json:"body,omitempty" yaml:"body,omitempty"`
	FirstSeen  string `json:"first_seen" yaml:"first_seen"`
	LastSeen   string `json:"last_seen" yaml:"last_seen"`
}

// List returns all cataloged snippets sorted by tag.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	return s.query(ctx, `SELECT tag, active, comment, source_file, line, target, action,
			referenced, extracted, body, first_seen, last_seen
		FROM snippets ORDER BY tag`)
}

// Find searches snippet tags and bodies with FTS5, ranked by relevance.
// A limit of zero uses the store default.
func (s *Store) Find(ctx context.Context, query string, limit int) ([]Entry, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query required")
	}
	if limit <= 0 {
		limit = s.maxResults
	}
	return s.query(ctx, `SELECT sn.tag, sn.active, sn.comment, sn.source_file, sn.line,
			sn.target, sn.action, sn.referenced, sn.extracted, sn.body,
			sn.first_seen, sn.last_seen
		FROM snippets_fts
		JOIN snippets sn ON sn.rowid = snippets_fts.rowid
		WHERE snippets_fts MATCH ?
		ORDER BY snippets_fts.rank
		LIMIT ?`, query, limit)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			comment sql.NullString
			body    sql.NullString
		)
		if err := rows.Scan(
			&e.Tag, &e.Active, &comment, &e.File, &e.Line, &e.Target, &e.Action,
			&e.Referenced, &e.Extracted, &body, &e.FirstSeen, &e.LastSeen,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if comment.Valid {
			e.Comment = comment.String
		}
		if body.Valid {
			e.Body = body.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
