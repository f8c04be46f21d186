package storage

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxAutoCheckpoints is how many automatic checkpoints are kept.
const maxAutoCheckpoints = 5

// CheckpointManager snapshots a file-backed store into a checkpoints
// directory next to it and restores those snapshots.
type CheckpointManager struct {
	store          *SQLiteStorage
	checkpointsDir string
}

// CheckpointInfo describes one checkpoint. It is also the sidecar metadata
// written next to the snapshot.
type CheckpointInfo struct {
	CreatedAt     time.Time `json:"created_at"`
	ID            string    `json:"id"`
	Description   string    `json:"description"`
	RunID         string    `json:"run_id,omitempty"`
	FileSize      int64     `json:"file_size"`
	Grants        int       `json:"grants"`
	Grantmakers   int       `json:"grantmakers"`
	Awards        int       `json:"awards"`
	SchemaVersion int       `json:"schema_version"`
	IsAuto        bool      `json:"is_auto"`
}

// Checkpoint errors.
var (
	ErrCheckpointNotFound    = errors.New("checkpoint not found")
	ErrCheckpointCorrupted   = errors.New("checkpoint integrity check failed")
	ErrCheckpointExists      = errors.New("checkpoint already exists")
	ErrCheckpointUnsupported = errors.New("checkpoints need a file-backed store")
	ErrInvalidCheckpointID   = errors.New("invalid checkpoint ID: cannot contain path separators")
)

// Checkpoints returns the manager for s. In-memory stores cannot be
// checkpointed.
func (s *SQLiteStorage) Checkpoints() (*CheckpointManager, error) {
	if s.dbPath == MemoryPath {
		return nil, ErrCheckpointUnsupported
	}
	dir := filepath.Join(filepath.Dir(s.dbPath), "checkpoints")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}
	return &CheckpointManager{store: s, checkpointsDir: dir}, nil
}

func validateCheckpointID(id string) error {
	if strings.Contains(id, "/") || strings.Contains(id, "\\") || strings.Contains(id, "..") {
		return ErrInvalidCheckpointID
	}
	return validateString(id, "checkpoint ID")
}

func (cm *CheckpointManager) dbFile(id string) string {
	return filepath.Join(cm.checkpointsDir, id+".db")
}

func (cm *CheckpointManager) metaFile(id string) string {
	return filepath.Join(cm.checkpointsDir, id+".meta.json")
}

// Create snapshots the store under tag. An empty tag is generated from the
// current time.
func (cm *CheckpointManager) Create(ctx context.Context, tag, description string) (*CheckpointInfo, error) {
	if tag == "" {
		tag = "checkpoint-" + time.Now().Format("2006-01-02-150405")
	}
	return cm.create(ctx, tag, description, false)
}

func (cm *CheckpointManager) create(ctx context.Context, tag, description string, auto bool) (*CheckpointInfo, error) {
	if err := validateCheckpointID(tag); err != nil {
		return nil, err
	}

	path := cm.dbFile(tag)
	if _, err := os.Stat(path); err == nil {
		return nil, ErrCheckpointExists
	}

	info := CheckpointInfo{
		ID:          tag,
		CreatedAt:   time.Now(),
		Description: description,
		IsAuto:      auto,
	}
	if err := cm.collect(ctx, &info); err != nil {
		return nil, err
	}

	if err := cm.backup(ctx, path); err != nil {
		return nil, fmt.Errorf("failed to backup database: %w", err)
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat checkpoint: %w", err)
	}
	info.FileSize = stat.Size()

	if err := saveMetadata(cm.metaFile(tag), info); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			slog.Error("failed to remove checkpoint file after metadata save failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save metadata: %w", err)
	}

	slog.Debug("Created checkpoint", "id", tag, "grants", info.Grants, "awards", info.Awards)
	return &info, nil
}

// List returns every checkpoint, newest first. Unreadable metadata is
// skipped.
func (cm *CheckpointManager) List(_ context.Context) ([]CheckpointInfo, error) {
	entries, err := os.ReadDir(cm.checkpointsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoints directory: %w", err)
	}

	checkpoints := make([]CheckpointInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := loadMetadata(filepath.Join(cm.checkpointsDir, entry.Name()))
		if err != nil {
			slog.Debug("Skipping unreadable checkpoint metadata", "file", entry.Name(), "error", err)
			continue
		}
		checkpoints = append(checkpoints, *info)
	}

	slices.SortFunc(checkpoints, func(a, b CheckpointInfo) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return checkpoints, nil
}

// Get returns one checkpoint's metadata.
func (cm *CheckpointManager) Get(_ context.Context, id string) (*CheckpointInfo, error) {
	if err := validateCheckpointID(id); err != nil {
		return nil, err
	}
	info, err := loadMetadata(cm.metaFile(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("failed to load checkpoint metadata: %w", err)
	}
	return info, nil
}

// Restore replaces the database file with a checkpoint. It closes the store;
// callers must open a new one afterwards.
func (cm *CheckpointManager) Restore(ctx context.Context, id string) error {
	if _, err := cm.Get(ctx, id); err != nil {
		return err
	}
	path := cm.dbFile(id)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrCheckpointNotFound
		}
		return fmt.Errorf("failed to access checkpoint: %w", err)
	}

	if err := verifyIntegrity(ctx, path); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckpointCorrupted, err)
	}

	dbPath := cm.store.dbPath
	if _, err := cm.store.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		slog.Debug("WAL checkpoint before restore failed", "error", err)
	}
	if err := cm.store.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	backup := dbPath + ".restore-backup"
	if err := copyFile(dbPath, backup); err != nil {
		return fmt.Errorf("failed to backup current database: %w", err)
	}
	if err := copyFile(path, dbPath); err != nil {
		if restoreErr := copyFile(backup, dbPath); restoreErr != nil {
			slog.Error("failed to restore backup after checkpoint restore failure", "error", restoreErr)
		}
		return fmt.Errorf("failed to restore checkpoint: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove stale journal file", "file", dbPath+suffix, "error", err)
		}
	}
	if err := os.Remove(backup); err != nil {
		slog.Error("failed to remove backup file", "error", err)
	}
	return nil
}

// Delete removes a checkpoint and its metadata.
func (cm *CheckpointManager) Delete(_ context.Context, id string) error {
	if err := validateCheckpointID(id); err != nil {
		return err
	}
	path := cm.dbFile(id)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrCheckpointNotFound
		}
		return fmt.Errorf("failed to remove checkpoint file: %w", err)
	}
	if err := os.Remove(cm.metaFile(id)); err != nil {
		slog.Debug("failed to remove metadata file", "error", err, "id", id)
	}
	return nil
}

// AutoCheckpoint snapshots the store before an operation named prefix, then
// prunes automatic checkpoints beyond the newest five. An empty store is not
// checkpointed and returns nil info.
func (cm *CheckpointManager) AutoCheckpoint(ctx context.Context, prefix string) (*CheckpointInfo, error) {
	var probe CheckpointInfo
	if err := cm.collect(ctx, &probe); err != nil {
		return nil, err
	}
	if probe.Grants == 0 && probe.Awards == 0 {
		return nil, nil
	}

	tag := fmt.Sprintf("auto-%s-%s-%s", prefix, time.Now().Format("2006-01-02-150405"), uuid.NewString()[:8])
	info, err := cm.create(ctx, tag, "Automatic checkpoint before "+prefix, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-checkpoint: %w", err)
	}

	if err := cm.pruneAuto(ctx); err != nil {
		slog.Warn("failed to clean up old auto-checkpoints", "error", err)
	}
	return info, nil
}

func (cm *CheckpointManager) pruneAuto(ctx context.Context) error {
	checkpoints, err := cm.List(ctx)
	if err != nil {
		return err
	}
	kept := 0
	for _, cp := range checkpoints {
		if !cp.IsAuto {
			continue
		}
		kept++
		if kept <= maxAutoCheckpoints {
			continue
		}
		if err := cm.Delete(ctx, cp.ID); err != nil {
			slog.Debug("failed to delete old auto-checkpoint", "error", err, "checkpoint", cp.ID)
		}
	}
	return nil
}

// collect fills the schema version, row counts and latest run.
func (cm *CheckpointManager) collect(ctx context.Context, info *CheckpointInfo) error {
	version, err := cm.store.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	info.SchemaVersion = version

	counts := []struct {
		dst   *int
		query string
	}{
		{&info.Grants, "SELECT COUNT(*) FROM grants"},
		{&info.Grantmakers, "SELECT COUNT(*) FROM grantmakers"},
		{&info.Awards, "SELECT COUNT(*) FROM nih_awards"},
	}
	for _, c := range counts {
		if err := cm.store.db.GetContext(ctx, c.dst, c.query); err != nil {
			return fmt.Errorf("failed to count rows: %w", err)
		}
	}

	runs, err := cm.store.RunIDs(ctx)
	if err != nil {
		return err
	}
	if len(runs) > 0 {
		info.RunID = runs[0]
	}
	return nil
}

// backup writes a consistent copy of the database to dest.
func (cm *CheckpointManager) backup(ctx context.Context, dest string) error {
	if strings.ContainsAny(dest, `'";`) {
		return fmt.Errorf("invalid destination path: contains forbidden characters")
	}
	if _, err := cm.store.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	// #nosec G201 - dest is checked above
	if _, err := cm.store.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", dest)); err != nil {
		slog.Debug("VACUUM INTO failed, copying file", "error", err)
		return copyFile(cm.store.dbPath, dest)
	}
	return nil
}

func verifyIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// copyFile copies src to dst through a temporary file and a rename.
func copyFile(src, dst string) error {
	source, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := source.Close(); closeErr != nil {
			slog.Error("failed to close source file", "error", closeErr)
		}
	}()

	tmp := dst + ".tmp"
	destination, err := os.Create(filepath.Clean(tmp))
	if err != nil {
		return err
	}
	if _, err := io.Copy(destination, source); err != nil {
		_ = destination.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := destination.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func saveMetadata(path string, info CheckpointInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func loadMetadata(path string) (*CheckpointInfo, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var info CheckpointInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
