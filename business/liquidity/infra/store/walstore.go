package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/vadiminshakov/gowal"

	"github.com/fd1az/liquidity-bot/business/liquidity/app"
	"github.com/fd1az/liquidity-bot/business/liquidity/domain"
)

const (
	walSegmentLimit = 1000
	walMaxSegments  = 100
	walKeyPrefix    = "balance_snapshot_"
)

// Ensure WALStore implements SnapshotStore.
var _ app.SnapshotStore = (*WALStore)(nil)

// WALStore persists snapshots in an append-only log, keeping the full
// history of removals instead of only the latest pair of files.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed snapshot store under dir.
func NewWALStore(dir string) (*WALStore, error) {
	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "snapshot_",
		SegmentThreshold: walSegmentLimit,
		MaxSegments:      walMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, fmt.Errorf("init snapshot WAL: %w", err)
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the snapshot to the log.
func (s *WALStore) Save(_ context.Context, snap domain.BalanceSnapshot) error {
	payload, err := json.Marshal(encodeSnapshot(snap))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	key := walKeyPrefix + snap.Label

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// History returns all snapshot records written after the provided index.
func (s *WALStore) History(index uint64) ([]snapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]snapshotRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, ok := s.wal.Get(idx)
		if !ok || !strings.HasPrefix(key, walKeyPrefix) {
			continue
		}
		var rec snapshotRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode snapshot record: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// Close closes the underlying log.
func (s *WALStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wal.Close()
}
