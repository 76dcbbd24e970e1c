package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileStore appends documents to a local file, one JSON object per line.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store appending to the file at path. The file is
// created on the first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save appends the document as a single JSON line.
func (s *FileStore) Save(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open results file: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return f.Close()
}

// Close is a no-op; the file is opened per save.
func (s *FileStore) Close() error {
	return nil
}
