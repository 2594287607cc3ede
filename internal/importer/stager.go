package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"shoebox/internal/fileutil"
	"shoebox/internal/logging"
	"shoebox/internal/tasks"
)

// ErrCancelled reports that the task registry flushed the token mid-run. The
// partial work is left in place; the next stage run wipes it.
var ErrCancelled = errors.New("importer: task cancelled")

// StageResult is the terminal payload of a staging run.
type StageResult struct {
	OriginalPath string `json:"original_path"`
	FilesCopied  int    `json:"files_copied"`
}

// Stager mirrors a subtree of the originals area into the staging area,
// preserving relative paths and modification times.
type Stager struct {
	stagingDir string
	logger     *slog.Logger
	statfs     func(path string) (free uint64, err error)
}

// NewStager returns a stager writing into stagingDir.
func NewStager(stagingDir string, logger *slog.Logger) *Stager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stager{stagingDir: stagingDir, logger: logger, statfs: realStatfs}
}

func realStatfs(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// Stage wipes the staging area, verifies free space, and copies every file
// under source into staging. Progress is reported per file through the token;
// a flushed token aborts with ErrCancelled.
func (s *Stager) Stage(token *tasks.Token, source string) (StageResult, error) {
	if source == "" {
		return StageResult{}, errors.New("importer: empty source path")
	}
	info, err := os.Stat(source)
	if err != nil {
		return StageResult{}, fmt.Errorf("importer: source: %w", err)
	}
	if !info.IsDir() {
		return StageResult{}, fmt.Errorf("importer: source %s is not a directory", source)
	}

	totalFiles, totalBytes, err := measureTree(source)
	if err != nil {
		return StageResult{}, fmt.Errorf("importer: measure source: %w", err)
	}

	if err := s.wipeStaging(); err != nil {
		return StageResult{}, err
	}

	if free, err := s.statfs(s.stagingDir); err == nil && free < totalBytes {
		return StageResult{}, fmt.Errorf("importer: staging area has %d bytes free, need %d", free, totalBytes)
	}

	s.logger.Info("staging import",
		logging.String("source", source),
		logging.Int("total_files", totalFiles))

	copied := 0
	err = filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(s.stagingDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := fileutil.CopyFilePreservingTimes(path, dst); err != nil {
			return fmt.Errorf("copy %s: %w", rel, err)
		}
		copied++
		if !token.Update(percent(copied, totalFiles), copied, totalFiles) {
			return ErrCancelled
		}
		return nil
	})
	if errors.Is(err, ErrCancelled) {
		return StageResult{}, ErrCancelled
	}
	if err != nil {
		return StageResult{}, fmt.Errorf("importer: stage: %w", err)
	}

	result := StageResult{OriginalPath: source, FilesCopied: copied}
	token.Complete(result)
	return result, nil
}

// wipeStaging removes the contents of the staging directory, not the
// directory itself.
func (s *Stager) wipeStaging() error {
	entries, err := os.ReadDir(s.stagingDir)
	if err != nil {
		return fmt.Errorf("importer: read staging dir: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(s.stagingDir, entry.Name())); err != nil {
			return fmt.Errorf("importer: wipe staging: %w", err)
		}
	}
	return nil
}

func measureTree(root string) (files int, bytes uint64, err error) {
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		files++
		bytes += uint64(info.Size())
		return nil
	})
	return files, bytes, err
}

func percent(done, total int) float64 {
	if total <= 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}
