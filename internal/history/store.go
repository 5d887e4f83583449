// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists one record per conversion in a local SQLite
// database and answers recent-activity and summary queries.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/zconvert/pkg/types"
)

// timeLayout is fixed width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store manages the history database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.HistoryConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Requests record concurrently; one connection serializes writers.
	db.SetMaxOpenConns(1)

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	s := &Store{db: db, maxResults: maxResults}
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
		`CREATE TABLE IF NOT EXISTS conversions (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			original_filename TEXT NOT NULL,
			source_format TEXT NOT NULL,
			target_format TEXT NOT NULL,
			category TEXT,
			strategy TEXT,
			status TEXT NOT NULL,
			error TEXT,
			duration_ns INTEGER,
			output_bytes INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_created_at ON conversions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_status ON conversions(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts rec. It implements convert.Recorder.
func (s *Store) Record(ctx context.Context, rec types.ConversionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record has no id")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (id, created_at, original_filename, source_format, target_format,
			category, strategy, status, error, duration_ns, output_bytes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UTC().Format(timeLayout), rec.OriginalFilename,
		rec.SourceFormat, rec.TargetFormat, string(rec.Category), rec.Strategy,
		string(rec.Status), rec.Error, int64(rec.Duration), rec.OutputBytes,
	)
	if err != nil {
		return fmt.Errorf("inserting conversion %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first. A limit of 0 uses the
// configured default.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.ConversionRecord, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	return s.query(ctx, limit)
}

func (s *Store) query(ctx context.Context, limit int) ([]types.ConversionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, original_filename, source_format, target_format,
			COALESCE(category, ''), COALESCE(strategy, ''), status, COALESCE(error, ''),
			COALESCE(duration_ns, 0), COALESCE(output_bytes, 0)
		 FROM conversions
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer rows.Close()

	var out []types.ConversionRecord
	for rows.Next() {
		var (
			rec       types.ConversionRecord
			createdAt string
			category  string
			status    string
			duration  int64
		)
		if err := rows.Scan(&rec.ID, &createdAt, &rec.OriginalFilename, &rec.SourceFormat,
			&rec.TargetFormat, &category, &rec.Strategy, &status, &rec.Error,
			&duration, &rec.OutputBytes); err != nil {
			return nil, fmt.Errorf("scanning conversion: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		rec.Category = types.FormatCategory(category)
		rec.Status = types.ConversionStatus(status)
		rec.Duration = time.Duration(duration)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summary aggregates the whole history.
type Summary struct {
	Total       int            `json:"total" yaml:"total"`
	ByStatus    map[string]int `json:"by_status" yaml:"by_status"`
	ByStrategy  map[string]int `json:"by_strategy" yaml:"by_strategy"`
	ByCategory  map[string]int `json:"by_category" yaml:"by_category"`
	OutputBytes int64          `json:"output_bytes" yaml:"output_bytes"`
}

// Summary returns per-status, per-strategy and per-category counts.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	sum := Summary{
		ByStatus:   map[string]int{},
		ByStrategy: map[string]int{},
		ByCategory: map[string]int{},
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*), COALESCE(sum(output_bytes), 0) FROM conversions`,
	).Scan(&sum.Total, &sum.OutputBytes); err != nil {
		return Summary{}, fmt.Errorf("counting conversions: %w", err)
	}

	groups := []struct {
		column string
		into   map[string]int
	}{
		{"status", sum.ByStatus},
		{"strategy", sum.ByStrategy},
		{"category", sum.ByCategory},
	}
	for _, g := range groups {
		if err := s.countBy(ctx, g.column, g.into); err != nil {
			return Summary{}, err
		}
	}
	return sum, nil
}

// countBy fills into with counts grouped by column. column is one of a
// fixed set of names, never user input.
func (s *Store) countBy(ctx context.Context, column string, into map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+column+`, count(*) FROM conversions
		 WHERE `+column+` IS NOT NULL AND `+column+` != ''
		 GROUP BY `+column)
	if err != nil {
		return fmt.Errorf("grouping by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scanning %s count: %w", column, err)
		}
		into[key] = n
	}
	return rows.Err()
}
