// Package persist stores the result documents jobs produce. The configured
// target selects the backend: a .db path opens a SQLite store, any other
// path appends to a local JSON-lines file, and an empty target falls back to
// a default file in the working directory.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultFileName is the local fallback file used when no target is set.
const DefaultFileName = "results.json"

// Document is one result record: which job kind produced it, the run it
// belongs to, the graph name, and the sanitized payload.
type Document struct {
	Kind  string         `json:"kind"`
	RunID string         `json:"run_id"`
	Name  string         `json:"name"`
	Data  map[string]any `json:"data"`
}

// Store persists result documents.
type Store interface {
	Save(ctx context.Context, doc *Document) error
	Close() error
}

// Open returns the store selected by target.
func Open(target string) (Store, error) {
	if target == "" {
		target = DefaultFileName
	}
	if strings.HasSuffix(target, ".db") {
		return NewSQLiteStore(target)
	}
	return NewFileStore(target), nil
}

// Sanitize normalizes a value through a JSON round trip so a document's
// payload holds only plain maps, slices, strings, numbers, and booleans,
// independent of the Go types the runners used.
func Sanitize(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to sanitize document: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to sanitize document: %w", err)
	}
	return out, nil
}
