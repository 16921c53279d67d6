package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CheckpointStore persists the last fully synced block.
type CheckpointStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, block uint64) error
}

// Checkpoint is the on-disk checkpoint document.
type Checkpoint struct {
	Account            string `json:"account"`
	LastProcessedBlock uint64 `json:"last_processed_block"`
	UpdatedAt          string `json:"updated_at"`
}

// FileCheckpoint persists checkpoints to disk.
type FileCheckpoint struct {
	path    string
	account string
}

func NewFileCheckpoint(path, account string) *FileCheckpoint {
	return &FileCheckpoint{path: path, account: account}
}

func (c *FileCheckpoint) Load(_ context.Context) (uint64, bool, error) {
	stat, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return 0, false, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return 0, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return 0, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	if cp.Account != "" && cp.Account != c.account {
		return 0, false, fmt.Errorf("checkpoint belongs to %s, not %s", cp.Account, c.account)
	}

	return cp.LastProcessedBlock, true, nil
}

func (c *FileCheckpoint) Save(_ context.Context, block uint64) error {
	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	cp := Checkpoint{
		Account:            c.account,
		LastProcessedBlock: block,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}

	return nil
}

// StateStore is a named block checkpoint table, such as postgres.Store.
type StateStore interface {
	LoadState(ctx context.Context, name string) (uint64, bool, error)
	SaveState(ctx context.Context, name string, block uint64) error
}

// StateCheckpoint keeps the checkpoint in a StateStore under one name.
type StateCheckpoint struct {
	store StateStore
	name  string
}

func NewStateCheckpoint(store StateStore, account string) *StateCheckpoint {
	return &StateCheckpoint{store: store, name: "sync:" + account}
}

func (c *StateCheckpoint) Load(ctx context.Context) (uint64, bool, error) {
	return c.store.LoadState(ctx, c.name)
}

func (c *StateCheckpoint) Save(ctx context.Context, block uint64) error {
	return c.store.SaveState(ctx, c.name, block)
}

// NoCheckpoint never resumes and never saves.
type NoCheckpoint struct{}

func (NoCheckpoint) Load(context.Context) (uint64, bool, error) { return 0, false, nil }
func (NoCheckpoint) Save(context.Context, uint64) error         { return nil }
