package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrDuplicateRun is returned when a run label is already recorded.
var ErrDuplicateRun = errors.New("run already recorded")

// FileFingerprint holds stat-based identity for an input file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Run describes one recorded analysis.
type Run struct {
	Label     string
	Analysis  string
	Method    string
	CreatedAt time.Time
	Inputs    []FileFingerprint
}

// RecordRun stores a run and the fingerprints of its inputs.
func (s *Store) RecordRun(r Run) error {
	var n int
	if err := s.db.QueryRow("SELECT count(*) FROM runs WHERE run = ?", r.Label).Scan(&n); err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%q: %w", r.Label, ErrDuplicateRun)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT INTO runs VALUES (?, ?, ?, ?)",
		r.Label, r.Analysis, r.Method, r.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, in := range r.Inputs {
		if _, err := tx.Exec("INSERT INTO run_inputs VALUES (?, ?, ?, ?)",
			r.Label, in.Path, in.Size, in.ModTime.UTC()); err != nil {
			return fmt.Errorf("insert run input: %w", err)
		}
	}
	return tx.Commit()
}

// LookupRun returns a recorded run, or false if the label is unknown.
func (s *Store) LookupRun(label string) (Run, bool, error) {
	r := Run{Label: label}
	err := s.db.QueryRow("SELECT analysis, method, created_at FROM runs WHERE run = ?", label).
		Scan(&r.Analysis, &r.Method, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, fmt.Errorf("query run: %w", err)
	}

	rows, err := s.db.Query("SELECT path, size, mod_time FROM run_inputs WHERE run = ? ORDER BY path", label)
	if err != nil {
		return Run{}, false, fmt.Errorf("query run inputs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var in FileFingerprint
		if err := rows.Scan(&in.Path, &in.Size, &in.ModTime); err != nil {
			return Run{}, false, fmt.Errorf("scan run input: %w", err)
		}
		r.Inputs = append(r.Inputs, in)
	}
	if err := rows.Err(); err != nil {
		return Run{}, false, fmt.Errorf("iterate run inputs: %w", err)
	}
	return r, true, nil
}
