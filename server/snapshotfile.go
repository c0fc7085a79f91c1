package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bossboy914/Sothebys-Auction-Smart-Contract/ledger"
)

// SnapshotFile persists CBOR ledger snapshots to disk so the server can
// recover its state across restarts. Writes go through a temp file and
// rename, so a crash mid-write leaves the previous snapshot intact.
type SnapshotFile struct {
	path string
}

func NewSnapshotFile(path string) *SnapshotFile {
	return &SnapshotFile{path: path}
}

// Load restores a ledger from the snapshot file. It returns (nil, nil) when
// no snapshot exists yet.
func (f *SnapshotFile) Load(sink ledger.EventSink) (*ledger.Ledger, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	l, err := ledger.Restore(data, nil, sink)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	return l, nil
}

// Save writes the ledger's current snapshot.
func (f *SnapshotFile) Save(l *ledger.Ledger) error {
	data, err := l.Snapshot()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
