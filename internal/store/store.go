// Package store caches fetched XML and parsed documents in SQLite so
// repeated harvests don't hit the NCBI services again.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pmctools/pmcharvest/internal/article"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database with WAL mode enabled.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS articles (
	pmcid      TEXT PRIMARY KEY,
	xml        TEXT NOT NULL,
	fetched_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	pmcid     TEXT PRIMARY KEY,
	document  TEXT NOT NULL,
	parsed_at TEXT NOT NULL
);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// XML returns the cached article XML, or ok=false on a miss.
func (s *Store) XML(ctx context.Context, pmcid string) (string, bool, error) {
	var src string
	err := s.db.QueryRowContext(ctx, "SELECT xml FROM articles WHERE pmcid = ?", pmcid).Scan(&src)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read cached xml: %w", err)
	}
	return src, true, nil
}

func (s *Store) PutXML(ctx context.Context, pmcid, src string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO articles (pmcid, xml, fetched_at) VALUES (?, ?, ?) ON CONFLICT(pmcid) DO UPDATE SET xml=excluded.xml, fetched_at=excluded.fetched_at",
		pmcid, src, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("cache xml: %w", err)
	}
	return nil
}

// Document returns the cached parse result, or ok=false on a miss.
func (s *Store) Document(ctx context.Context, pmcid string) (*article.Document, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM documents WHERE pmcid = ?", pmcid).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached document: %w", err)
	}

	var doc article.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, false, fmt.Errorf("decode cached document: %w", err)
	}
	return &doc, true, nil
}

func (s *Store) PutDocument(ctx context.Context, doc *article.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (pmcid, document, parsed_at) VALUES (?, ?, ?) ON CONFLICT(pmcid) DO UPDATE SET document=excluded.document, parsed_at=excluded.parsed_at",
		doc.PMCID, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("cache document: %w", err)
	}
	return nil
}
