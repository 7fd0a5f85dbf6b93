package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fd1az/liquidity-bot/business/liquidity/app"
	"github.com/fd1az/liquidity-bot/business/liquidity/domain"
)

// Ensure FileStore implements SnapshotStore.
var _ app.SnapshotStore = (*FileStore)(nil)

// FileStore writes each snapshot as a JSON file named after its label,
// e.g. before-removal.json and after-removal.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed snapshot store, creating the directory
// if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file a label is written to.
func (s *FileStore) Path(label string) string {
	return filepath.Join(s.dir, label+"-removal.json")
}

// Save writes the snapshot, replacing any previous file for the same label.
func (s *FileStore) Save(_ context.Context, snap domain.BalanceSnapshot) error {
	payload, err := json.MarshalIndent(encodeSnapshot(snap), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(s.Path(snap.Label), payload, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
