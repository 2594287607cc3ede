package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"shoebox/internal/config"
	"shoebox/internal/history"
	"shoebox/internal/importer"
	"shoebox/internal/library"
	"shoebox/internal/logging"
	"shoebox/internal/metadata"
	"shoebox/internal/tasks"
)

// Daemon owns the folder status tree and the import pipeline, and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	tracker  *tasks.Tracker
	store    metadata.Store
	history  *history.Store
	snapshot *library.Snapshot
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	mu           sync.Mutex
	tree         library.Tree
	lastAnalysis *importer.Analysis
	lastDevice   string

	watcher *mediaWatcher
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool   `json:"running"`
	PID           int    `json:"pid"`
	LockFilePath  string `json:"lock_file_path"`
	SnapshotPath  string `json:"snapshot_path"`
	HistoryDBPath string `json:"history_db_path"`
	OriginalsDir  string `json:"originals_dir"`
	FolderCount   int    `json:"folder_count"`
	HasAnalysis   bool   `json:"has_analysis"`
	LastDevice    string `json:"last_device,omitempty"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store metadata.Store, hist *history.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || hist == nil {
		return nil, errors.New("daemon requires config, metadata store, and history store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "shoeboxd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		tracker:  tasks.NewTracker(),
		store:    store,
		history:  hist,
		snapshot: library.NewSnapshot(cfg.Paths.SnapshotPath, cfg.Backup.Enabled, cfg.Backup.RetentionDays, logger),
		logPath:  filepath.Join(cfg.Paths.LogDir, "shoebox.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	if cfg.Watcher.Enabled {
		d.watcher = newMediaWatcher(logger, d.noteDevice)
	}
	return d, nil
}

// Start acquires the daemon lock, reconciles the folder tree against the
// originals area, and launches the media watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another shoebox daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	if err := d.Rescan(); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("initial rescan: %w", err)
	}

	if d.watcher != nil {
		if err := d.watcher.Start(d.ctx); err != nil {
			d.logger.Warn("media watcher unavailable", logging.Error(err))
		}
	}

	d.running.Store(true)
	d.logger.Info("shoebox daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.tracker.Flush()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("shoebox daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	folderCount := 0
	if root := d.tree.Find(d.cfg.Paths.OriginalsDir); root != nil {
		folderCount = root.NumSubfolders
	}
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		LockFilePath:  d.lockPath,
		SnapshotPath:  d.cfg.Paths.SnapshotPath,
		HistoryDBPath: d.cfg.Paths.HistoryDBPath,
		OriginalsDir:  d.cfg.Paths.OriginalsDir,
		FolderCount:   folderCount,
		HasAnalysis:   d.lastAnalysis != nil,
		LastDevice:    d.lastDevice,
	}
}

// Rescan rebuilds the folder tree from disk, overlaying the processed flags
// of the previous tree, and persists the result.
func (d *Daemon) Rescan() error {
	root := d.cfg.Paths.OriginalsDir
	fresh := library.Tree{root: library.Scan(root, d.logger)}

	d.mu.Lock()
	defer d.mu.Unlock()

	previous := d.tree
	if previous == nil {
		loaded, err := d.snapshot.Load()
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		previous = loaded
	}

	d.tree = library.Merge(fresh, previous)
	return d.snapshot.Save(d.tree)
}

// Folders returns the tri-state display rows for the direct children of
// path. An empty path means the originals root.
func (d *Daemon) Folders(path string) []library.ChildStatus {
	if strings.TrimSpace(path) == "" {
		path = d.cfg.Paths.OriginalsDir
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tree.ChildStatuses(path)
}

// SetProcessed flags a folder, optionally every descendant leaf, and
// persists the tree.
func (d *Daemon) SetProcessed(path string, flag, recursive bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.tree.SetProcessed(path, flag, recursive) {
		return fmt.Errorf("folder %q not found in status tree", path)
	}
	return d.snapshot.Save(d.tree)
}

// Task returns the progress entry for the given task id.
func (d *Daemon) Task(id string) tasks.Progress {
	return d.tracker.Get(id)
}

// FlushTasks aborts every in-flight task and empties the registry.
func (d *Daemon) FlushTasks() {
	d.tracker.Flush()
	d.mu.Lock()
	d.lastAnalysis = nil
	d.mu.Unlock()
}

// History returns recorded pipeline runs, newest first.
func (d *Daemon) History(ctx context.Context, limit int) ([]history.Run, error) {
	return d.history.List(ctx, limit)
}

// ClearHistory removes every recorded run.
func (d *Daemon) ClearHistory(ctx context.Context) error {
	return d.history.Clear(ctx)
}

// Backups lists the snapshot backups on disk, newest first.
func (d *Daemon) Backups() []library.BackupInfo {
	return d.snapshot.ListBackups()
}

// RestoreBackup replaces the live tree with the named backup.
func (d *Daemon) RestoreBackup(backupPath string) error {
	if err := d.snapshot.Restore(backupPath); err != nil {
		return err
	}
	tree, err := d.snapshot.Load()
	if err != nil {
		return fmt.Errorf("reload after restore: %w", err)
	}
	d.mu.Lock()
	d.tree = tree
	d.mu.Unlock()
	return nil
}

func (d *Daemon) noteDevice(device string) {
	d.mu.Lock()
	d.lastDevice = device
	d.mu.Unlock()
}

// workerContext returns the context workers run under, falling back to the
// background context when the daemon is not started.
func (d *Daemon) workerContext() context.Context {
	if d.ctx != nil {
		return d.ctx
	}
	return context.Background()
}
