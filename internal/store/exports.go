package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Export is one recorded export operation.
type Export struct {
	ID         string `json:"id"`
	SourcePath string `json:"source_path"`
	DestPath   string `json:"dest_path"`
	Project    string `json:"project"`
	SessionID  string `json:"session_id"`
	Bytes      int64  `json:"bytes"`
	ExportedAt int64  `json:"exported_at"` // unix milliseconds
}

// RecordExport inserts a new export record and returns its generated ID.
func (db *DB) RecordExport(e Export) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.ExportedAt == 0 {
		e.ExportedAt = time.Now().UnixMilli()
	}

	_, err := db.Exec(`
		INSERT INTO exports (id, source_path, dest_path, project, session_id, bytes, exported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.SourcePath, e.DestPath, e.Project, e.SessionID, e.Bytes, e.ExportedAt)
	if err != nil {
		return "", fmt.Errorf("insert export: %w", err)
	}
	return e.ID, nil
}

// RecentExports returns the most recent exports, newest first.
func (db *DB) RecentExports(limit int) ([]Export, error) {
	rows, err := db.Query(`
		SELECT id, source_path, dest_path, project, session_id, bytes, exported_at
		FROM exports ORDER BY exported_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	var exports []Export
	for rows.Next() {
		var e Export
		if err := rows.Scan(&e.ID, &e.SourcePath, &e.DestPath, &e.Project, &e.SessionID, &e.Bytes, &e.ExportedAt); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

// LastExportFor returns the most recent export of a given source file, or
// nil if it was never exported.
func (db *DB) LastExportFor(sourcePath string) (*Export, error) {
	rows, err := db.Query(`
		SELECT id, source_path, dest_path, project, session_id, bytes, exported_at
		FROM exports WHERE source_path = ? ORDER BY exported_at DESC LIMIT 1
	`, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("query export: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var e Export
	if err := rows.Scan(&e.ID, &e.SourcePath, &e.DestPath, &e.Project, &e.SessionID, &e.Bytes, &e.ExportedAt); err != nil {
		return nil, fmt.Errorf("scan export: %w", err)
	}
	return &e, nil
}
