// Package store exports enrichment results to DuckDB.
// Each run is recorded with its input files; result rows are keyed by run
// label, layer index and gene set.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for result export.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run VARCHAR PRIMARY KEY,
		analysis VARCHAR,
		method VARCHAR,
		created_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS run_inputs (
		run VARCHAR,
		path VARCHAR,
		size BIGINT,
		mod_time TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS ora_results (
		run VARCHAR,
		layer BIGINT,
		gene_set VARCHAR,
		p DOUBLE,
		fdr DOUBLE,
		expect DOUBLE,
		overlap BIGINT,
		enrichment_ratio DOUBLE,
		PRIMARY KEY (run, layer, gene_set)
	)`,
	`CREATE TABLE IF NOT EXISTS gsea_results (
		run VARCHAR,
		layer BIGINT,
		gene_set VARCHAR,
		es DOUBLE,
		nes DOUBLE,
		p_val DOUBLE,
		fdr DOUBLE,
		leading_edge BIGINT,
		PRIMARY KEY (run, layer, gene_set)
	)`,
	`CREATE TABLE IF NOT EXISTS gsea_running_sum (
		run VARCHAR,
		layer BIGINT,
		gene_set VARCHAR,
		position BIGINT,
		value DOUBLE
	)`,
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
