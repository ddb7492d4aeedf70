// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package storage persists documents, sections, and extracted knowledge in
// an embedded SQLite database. Document pipeline status is never stored; it
// is derived from the presence of rows in the stage tables.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Backend wraps the embedded database. Safe for concurrent use; writes are
// serialized by the database itself.
type Backend struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// Config configures the embedded backend.
type Config struct {
	// DataDir is the directory holding the database file.
	// Defaults to ~/.kurt/data/<project_id>.
	DataDir string

	// ProjectID namespaces the data directory.
	ProjectID string
}

// Open creates or opens the project database and ensures the schema.
func Open(cfg Config) (*Backend, error) {
	if cfg.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		cfg.DataDir = filepath.Join(homeDir, ".kurt", "data")
		if cfg.ProjectID != "" {
			cfg.DataDir = filepath.Join(cfg.DataDir, cfg.ProjectID)
		}
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(cfg.DataDir, "kurt.db")
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	b := &Backend{db: db}
	if err := b.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS kurt_document (
	document_id TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS kurt_fetch (
	document_id  TEXT PRIMARY KEY REFERENCES kurt_document(document_id),
	run_id       TEXT NOT NULL,
	content      TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL CHECK (status IN ('success', 'error')),
	error        TEXT NOT NULL DEFAULT '',
	fetched_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS kurt_section (
	section_id     TEXT NOT NULL,
	document_id    TEXT NOT NULL REFERENCES kurt_document(document_id),
	section_number INTEGER NOT NULL,
	heading        TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL,
	start_offset   INTEGER NOT NULL,
	end_offset     INTEGER NOT NULL,
	run_id         TEXT NOT NULL,
	PRIMARY KEY (document_id, section_id)
);

CREATE TABLE IF NOT EXISTS kurt_section_extraction (
	document_id    TEXT NOT NULL REFERENCES kurt_document(document_id),
	section_id     TEXT NOT NULL,
	section_number INTEGER NOT NULL,
	heading        TEXT NOT NULL DEFAULT '',
	metadata       TEXT NOT NULL DEFAULT '{}',
	error          TEXT NOT NULL DEFAULT '',
	run_id         TEXT NOT NULL,
	created_at     TEXT NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (document_id, section_id)
);

CREATE TABLE IF NOT EXISTS kurt_entity (
	entity_id      TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	canonical_name TEXT NOT NULL,
	entity_type    TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	aliases        TEXT NOT NULL DEFAULT '[]',
	run_id         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entity_canonical ON kurt_entity(canonical_name);

CREATE TABLE IF NOT EXISTS kurt_relationship (
	document_id   TEXT NOT NULL,
	section_id    TEXT NOT NULL,
	source        TEXT NOT NULL,
	target        TEXT NOT NULL,
	relation_type TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	confidence    REAL NOT NULL DEFAULT 0,
	run_id        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS kurt_claim (
	document_id TEXT NOT NULL,
	section_id  TEXT NOT NULL,
	statement   TEXT NOT NULL,
	entity_ids  TEXT NOT NULL DEFAULT '[]',
	quote       TEXT NOT NULL DEFAULT '',
	confidence  REAL NOT NULL DEFAULT 0,
	run_id      TEXT NOT NULL
);
`

func (b *Backend) ensureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// QueryResult holds rows from an ad-hoc read-only query.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Query executes a read-only SQL query, for the CLI query surface.
func (b *Backend) Query(ctx context.Context, query string, args ...any) (*QueryResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("backend is closed")
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if bs, ok := v.([]byte); ok {
				values[i] = string(bs)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	return result, rows.Err()
}

// Close shuts the backend down. Further calls fail.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
