package disposition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"shoebox/internal/dateguess"
	"shoebox/internal/fileutil"
	"shoebox/internal/importer"
	"shoebox/internal/logging"
	"shoebox/internal/metadata"
	"shoebox/internal/tasks"
)

// ErrCancelled reports that the task registry flushed the token mid-run.
var ErrCancelled = errors.New("disposition: task cancelled")

// Decision values an operator can attach to a staged file. Anything else is
// treated as a date to stamp into the file's metadata.
const (
	DecisionIgnore = "ignore"
	DecisionDelete = "delete"
)

// Result is the terminal payload of a disposition run.
type Result struct {
	FilesIgnored []string `json:"files_ignored"`
	FilesDeleted []string `json:"files_deleted"`
	FilesEdited  []string `json:"files_edited"`
	FilesCopied  []string `json:"files_copied"`
	Errors       []string `json:"errors"`
	ReportPath   string   `json:"report_path,omitempty"`
}

// Processor applies operator decisions to analyzed files and moves the
// survivors into the export area.
type Processor struct {
	stagingDir string
	exportDir  string
	reportDir  string
	store      metadata.Store
	logger     *slog.Logger

	// AutoFlag, when set, is invoked with the analysis source path after a
	// successful run so the folder tree can be flagged processed.
	AutoFlag func(path string)
}

// NewProcessor returns a processor moving files from stagingDir into
// exportDir and writing reports into reportDir.
func NewProcessor(stagingDir, exportDir, reportDir string, store metadata.Store, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{
		stagingDir: stagingDir,
		exportDir:  exportDir,
		reportDir:  reportDir,
		store:      store,
		logger:     logger,
	}
}

// Process runs both phases. Phase 1 partitions the decisions, stamping dates
// through the metadata store. Phase 2 wipes the export area, then deletes or
// relocates every analyzed file. Per-file failures land in the errors list
// and the batch continues; only a flushed token or an unusable export area
// aborts the run.
func (p *Processor) Process(ctx context.Context, token *tasks.Token, analysis importer.Analysis, decisions map[string]string) (Result, error) {
	if strings.TrimSpace(p.exportDir) == "" {
		return Result{}, errors.New("disposition: export directory not configured")
	}

	result := Result{
		FilesIgnored: []string{},
		FilesDeleted: []string{},
		FilesEdited:  []string{},
		FilesCopied:  []string{},
		Errors:       []string{},
	}

	totalDecisions := len(decisions)
	totalFiles := analysis.TotalFiles()
	totalItems := totalDecisions + totalFiles
	processed := 0
	startedAt := time.Now()

	deleteSet := make(map[string]bool)
	for _, item := range sortedDecisions(decisions) {
		path, decision := item.path, item.decision
		display := p.display(path)
		switch {
		case decision == DecisionIgnore:
			result.FilesIgnored = append(result.FilesIgnored, display)
		case decision == DecisionDelete:
			deleteSet[path] = true
		case dateguess.HasValidYear(decision):
			stamp := dateguess.Fixup(decision)
			when, err := time.Parse(dateguess.Layout, stamp)
			if err != nil || !p.store.WriteCaptureDate(ctx, path, when) {
				result.Errors = append(result.Errors, fmt.Sprintf("%s had an error when processing with %s.", display, stamp))
			} else {
				result.FilesEdited = append(result.FilesEdited, fmt.Sprintf("%s was processed with date %s.", display, stamp))
			}
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("%s was not processed.", display))
		}
		processed++
		if !token.Update(percent(processed, totalItems), processed, totalItems) {
			return Result{}, ErrCancelled
		}
	}

	// Destructive step: the export area holds only the previous run's
	// output and is cleared before relocation begins.
	if err := p.wipeExport(); err != nil {
		return Result{}, err
	}

	for _, file := range allFiles(analysis) {
		display := p.display(file)
		if deleteSet[file] {
			if err := os.Remove(file); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Error deleting %s: %v", display, err))
				p.logger.Warn("delete failed", logging.String("path", file), logging.Error(err))
			} else {
				result.FilesDeleted = append(result.FilesDeleted, fmt.Sprintf("%s was deleted.", display))
			}
		} else {
			if err := p.relocate(file); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Error moving %s to export folder: %v", display, err))
				p.logger.Warn("relocate failed", logging.String("path", file), logging.Error(err))
			} else {
				result.FilesCopied = append(result.FilesCopied, fmt.Sprintf("%s was copied to export folder.", display))
			}
		}
		processed++
		if !token.Update(percent(processed, totalItems), processed, totalItems) {
			return Result{}, ErrCancelled
		}
	}

	if path, err := p.writeReport(startedAt, totalDecisions, totalFiles, result); err != nil {
		p.logger.Warn("report write failed", logging.Error(err))
	} else {
		result.ReportPath = path
	}

	token.Complete(result)

	if p.AutoFlag != nil && analysis.OriginalPath != "" {
		p.AutoFlag(analysis.OriginalPath)
	}

	p.logger.Info("disposition complete",
		logging.Int("edited", len(result.FilesEdited)),
		logging.Int("deleted", len(result.FilesDeleted)),
		logging.Int("copied", len(result.FilesCopied)),
		logging.Int("errors", len(result.Errors)))
	return result, nil
}

type decisionItem struct {
	path     string
	decision string
}

// sortedDecisions gives the phase-1 loop a stable order so reruns produce
// identical reports.
func sortedDecisions(decisions map[string]string) []decisionItem {
	items := make([]decisionItem, 0, len(decisions))
	for path, decision := range decisions {
		items = append(items, decisionItem{path: path, decision: decision})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].path < items[j].path })
	return items
}

func allFiles(analysis importer.Analysis) []string {
	files := make([]string, 0, analysis.TotalFiles())
	for _, f := range analysis.FilesWithDates {
		files = append(files, filepath.Join(f.Path, f.Filename))
	}
	for _, f := range analysis.FilesWithoutDates {
		files = append(files, filepath.Join(f.Path, f.Filename))
	}
	for _, f := range analysis.IgnoredFiles {
		files = append(files, filepath.Join(f.Path, f.Filename))
	}
	return files
}

// relocate copies the file into the export area preserving its path relative
// to staging and its mtime, then removes the staged copy.
func (p *Processor) relocate(path string) error {
	rel, err := filepath.Rel(p.stagingDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	dst := filepath.Join(p.exportDir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := fileutil.CopyFilePreservingTimes(path, dst); err != nil {
		return err
	}
	return os.Remove(path)
}

func (p *Processor) wipeExport() error {
	entries, err := os.ReadDir(p.exportDir)
	if err != nil {
		return fmt.Errorf("disposition: read export dir: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(p.exportDir, entry.Name())); err != nil {
			return fmt.Errorf("disposition: wipe export: %w", err)
		}
	}
	return nil
}

func (p *Processor) display(path string) string {
	if rel, err := filepath.Rel(p.stagingDir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func percent(done, total int) float64 {
	if total <= 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}
