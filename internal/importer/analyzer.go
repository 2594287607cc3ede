package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"shoebox/internal/dateguess"
	"shoebox/internal/logging"
	"shoebox/internal/metadata"
	"shoebox/internal/tasks"
)

// DatedFile is an image whose embedded capture date was readable.
type DatedFile struct {
	Path      string            `json:"path"`
	Filename  string            `json:"filename"`
	Date      string            `json:"date"`
	FileDate  string            `json:"file_date,omitempty"`
	Guesses   dateguess.Guesses `json:"guessed_dates"`
	StartDate string            `json:"start_date,omitempty"`
	EndDate   string            `json:"end_date,omitempty"`
}

// UndatedFile is an image with no readable capture date; the guesses carry
// the candidates an operator chooses from.
type UndatedFile struct {
	Path      string            `json:"path"`
	Filename  string            `json:"filename"`
	FileDate  string            `json:"file_date,omitempty"`
	Guesses   dateguess.Guesses `json:"guessed_dates"`
	StartDate string            `json:"start_date,omitempty"`
	EndDate   string            `json:"end_date,omitempty"`
}

// IgnoredFile is anything that is not a recognized image.
type IgnoredFile struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

// Analysis is the terminal payload of an analyze run and the input to the
// disposition processor.
type Analysis struct {
	FilesWithDates    []DatedFile   `json:"files_with_dates"`
	FilesWithoutDates []UndatedFile `json:"files_without_dates"`
	IgnoredFiles      []IgnoredFile `json:"ignored_files"`
	OriginalPath      string        `json:"original_path"`
}

// TotalFiles returns the number of analyzed files across all three buckets.
func (a Analysis) TotalFiles() int {
	return len(a.FilesWithDates) + len(a.FilesWithoutDates) + len(a.IgnoredFiles)
}

// Analyzer walks the staging area and classifies every file.
type Analyzer struct {
	stagingDir string
	store      metadata.Store
	logger     *slog.Logger
}

// NewAnalyzer returns an analyzer over stagingDir using the given metadata
// store.
func NewAnalyzer(stagingDir string, store metadata.Store, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{stagingDir: stagingDir, store: store, logger: logger}
}

// Analyze classifies every file under staging into dated, undated, and
// ignored, attaching the range-filtered date guesses. originalPath is carried
// through to the payload so a later commit can flag it processed. A flushed
// token aborts with ErrCancelled.
func (a *Analyzer) Analyze(ctx context.Context, token *tasks.Token, originalPath, startDate, endDate string) (Analysis, error) {
	totalFiles, _, err := measureTree(a.stagingDir)
	if err != nil {
		return Analysis{}, fmt.Errorf("importer: measure staging: %w", err)
	}

	a.logger.Info("analyzing staged files",
		logging.String("source", originalPath),
		logging.Int("total_files", totalFiles))

	analysis := Analysis{
		FilesWithDates:    []DatedFile{},
		FilesWithoutDates: []UndatedFile{},
		IgnoredFiles:      []IgnoredFile{},
		OriginalPath:      originalPath,
	}

	processed := 0
	err = filepath.WalkDir(a.stagingDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		dir := filepath.Dir(path)
		name := entry.Name()

		if a.store.IsSupportedImage(path) {
			fileDate := modTime(path)
			guesses := dateguess.Guess(name, path, fileDate, startDate, endDate)
			if when, ok := a.store.ReadCaptureDate(ctx, path); ok {
				analysis.FilesWithDates = append(analysis.FilesWithDates, DatedFile{
					Path:      dir,
					Filename:  name,
					Date:      when.Format(dateguess.Layout),
					FileDate:  fileDate,
					Guesses:   guesses,
					StartDate: startDate,
					EndDate:   endDate,
				})
			} else {
				analysis.FilesWithoutDates = append(analysis.FilesWithoutDates, UndatedFile{
					Path:      dir,
					Filename:  name,
					FileDate:  fileDate,
					Guesses:   guesses,
					StartDate: startDate,
					EndDate:   endDate,
				})
			}
		} else {
			analysis.IgnoredFiles = append(analysis.IgnoredFiles, IgnoredFile{Path: dir, Filename: name})
		}

		processed++
		if !token.Update(percent(processed, totalFiles), processed, totalFiles) {
			return ErrCancelled
		}
		return nil
	})
	if errors.Is(err, ErrCancelled) {
		return Analysis{}, ErrCancelled
	}
	if err != nil {
		return Analysis{}, fmt.Errorf("importer: analyze: %w", err)
	}

	token.Complete(analysis)
	return analysis, nil
}

// modTime returns the file's modification time in canonical form, UTC, or ""
// when the file cannot be stat'd.
func modTime(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return info.ModTime().UTC().Format(dateguess.Layout)
}
