package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore writes documents into a single-table SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path, enables
// WAL mode, and migrates the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping results db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		run_id TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		payload JSON NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_run_id ON documents(run_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

// Save inserts one document row with the payload as a JSON blob.
func (s *SQLiteStore) Save(ctx context.Context, doc *Document) error {
	payload, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("failed to encode document payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (kind, run_id, name, payload) VALUES (?, ?, ?, ?)`,
		doc.Kind, doc.RunID, doc.Name, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// ByRun returns the documents stored for one run, in insertion order.
func (s *SQLiteStore) ByRun(ctx context.Context, runID string) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, run_id, name, payload FROM documents WHERE run_id = ? ORDER BY id`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var doc Document
		var payload string
		if err := rows.Scan(&doc.Kind, &doc.RunID, &doc.Name, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &doc.Data); err != nil {
			return nil, fmt.Errorf("failed to decode document payload: %w", err)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
