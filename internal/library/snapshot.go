package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"shoebox/internal/logging"
)

const backupTimestampLayout = "20060102_150405"

// Snapshot persists a folder status tree as flat JSON keyed by root path.
// Every overwrite of an existing non-empty snapshot first writes a
// timestamped .bak copy next to it, then prunes backups past the retention
// window. Writes are serialized with a file lock so concurrent daemon and
// tooling access cannot interleave.
type Snapshot struct {
	path          string
	backupEnabled bool
	retentionDays int
	logger        *slog.Logger
	lock          *flock.Flock
}

// BackupInfo describes one snapshot backup on disk.
type BackupInfo struct {
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	Date     time.Time `json:"date"`
	Size     int64     `json:"size"`
}

// NewSnapshot creates a snapshot store rooted at path. retentionDays bounds
// the age of kept backups; 0 keeps them forever. Backups are skipped
// entirely when backupEnabled is false.
func NewSnapshot(path string, backupEnabled bool, retentionDays int, logger *slog.Logger) *Snapshot {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Snapshot{
		path:          path,
		backupEnabled: backupEnabled,
		retentionDays: retentionDays,
		logger:        logging.NewComponentLogger(logger, "snapshot"),
		lock:          flock.New(path + ".lock"),
	}
}

// Path returns the snapshot file location.
func (s *Snapshot) Path() string {
	return s.path
}

// Load reads the persisted tree. A missing or empty snapshot yields an empty
// tree and no error.
func (s *Snapshot) Load() (Tree, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Tree{}, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(data) == 0 {
		return Tree{}, nil
	}

	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return tree, nil
}

// Save persists the tree, backing up the previous snapshot first. Errors are
// returned to the caller: losing the persisted state silently is
// unacceptable.
func (s *Snapshot) Save(tree Tree) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquire snapshot lock: %w", err)
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	if err := s.backupExisting(); err != nil {
		logging.WarnWithContext(s.logger, "snapshot backup failed; writing without backup", "snapshot_backup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "previous folder status is not recoverable from backup"),
		)
	}

	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace snapshot: %w", err)
	}

	s.logger.Debug("snapshot written", logging.String("path", s.path))
	return nil
}

func (s *Snapshot) backupExisting() error {
	if !s.backupEnabled {
		return nil
	}
	existing, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read current snapshot: %w", err)
	}
	if len(existing) == 0 {
		return nil
	}

	backupPath := fmt.Sprintf("%s.%s.bak", s.path, time.Now().Format(backupTimestampLayout))
	if err := os.WriteFile(backupPath, existing, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	s.logger.Info("snapshot backup created", logging.String("path", backupPath))

	s.pruneBackups()
	return nil
}

func (s *Snapshot) pruneBackups() {
	if s.retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	for _, backup := range s.ListBackups() {
		if !backup.Date.Before(cutoff) {
			continue
		}
		if err := os.Remove(backup.Path); err != nil {
			logging.WarnWithContext(s.logger, "backup prune failed; file remains", "backup_prune_failed",
				logging.String("path", backup.Path),
				logging.Error(err),
			)
			continue
		}
		s.logger.Info("old backup removed", logging.String("path", backup.Path))
	}
}

// ListBackups returns the snapshot's backups sorted newest first. Files that
// do not carry a parseable timestamp are skipped.
func (s *Snapshot) ListBackups() []BackupInfo {
	dir := filepath.Dir(s.path)
	base := filepath.Base(s.path)
	if dir == "" {
		dir = "."
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var backups []BackupInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, base) || !strings.HasSuffix(name, ".bak") {
			continue
		}
		parts := strings.Split(name, ".")
		if len(parts) < 2 {
			continue
		}
		stamp, err := time.ParseInLocation(backupTimestampLayout, parts[len(parts)-2], time.Local)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Filename: name,
			Path:     filepath.Join(dir, name),
			Date:     stamp,
			Size:     info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Date.After(backups[j].Date)
	})
	return backups
}

// Restore replaces the live snapshot with the contents of the named backup.
// The current snapshot is backed up first so a restore is itself reversible.
func (s *Snapshot) Restore(backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("parse backup: %w", err)
	}

	if err := s.Save(tree); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}
	s.logger.Info("snapshot restored",
		logging.String("backup", backupPath),
		logging.String("path", s.path),
	)
	return nil
}
