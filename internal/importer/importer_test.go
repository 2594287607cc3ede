package importer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shoebox/internal/importer"
	"shoebox/internal/tasks"
	"shoebox/internal/testsupport"
)

func TestStageCopiesTreeAndReportsProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(cfg.Paths.OriginalsDir, "2021", "vacation")
	testsupport.WriteTree(t, source, "a.jpg", "nested/b.jpg", "nested/deep/c.txt")

	// Stale content from a previous run must not survive the wipe.
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.StagingDir, "stale.jpg"), 8)

	tracker := tasks.NewTracker()
	token := tracker.Create("stage-1")

	stager := importer.NewStager(cfg.Paths.StagingDir, nil)
	result, err := stager.Stage(token, source)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if result.FilesCopied != 3 {
		t.Fatalf("files copied = %d, want 3", result.FilesCopied)
	}
	if result.OriginalPath != source {
		t.Fatalf("original path = %q", result.OriginalPath)
	}

	for _, rel := range []string{"a.jpg", "nested/b.jpg", "nested/deep/c.txt"} {
		if _, err := os.Stat(filepath.Join(cfg.Paths.StagingDir, rel)); err != nil {
			t.Fatalf("expected staged copy of %s: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.StagingDir, "stale.jpg")); !os.IsNotExist(err) {
		t.Fatal("stale staging content should have been wiped")
	}

	got := tracker.Get("stage-1")
	if got.Status != tasks.StatusCompleted || got.Progress != 100 {
		t.Fatalf("unexpected terminal state: %+v", got)
	}
}

func TestStagePreservesModificationTimes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(cfg.Paths.OriginalsDir, "batch")
	testsupport.WriteTree(t, source, "old.jpg")

	when := time.Date(2015, 4, 1, 10, 0, 0, 0, time.UTC)
	if err := os.Chtimes(filepath.Join(source, "old.jpg"), when, when); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	tracker := tasks.NewTracker()
	stager := importer.NewStager(cfg.Paths.StagingDir, nil)
	if _, err := stager.Stage(tracker.Create("stage-1"), source); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	info, err := os.Stat(filepath.Join(cfg.Paths.StagingDir, "old.jpg"))
	if err != nil {
		t.Fatalf("stat staged copy: %v", err)
	}
	if !info.ModTime().Equal(when) {
		t.Fatalf("mtime = %v, want %v", info.ModTime(), when)
	}
}

func TestStageCancelledByFlush(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(cfg.Paths.OriginalsDir, "batch")
	testsupport.WriteTree(t, source, "a.jpg", "b.jpg")

	tracker := tasks.NewTracker()
	token := tracker.Create("stage-1")
	tracker.Flush()

	stager := importer.NewStager(cfg.Paths.StagingDir, nil)
	if _, err := stager.Stage(token, source); !errors.Is(err, importer.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestStageRejectsMissingSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tracker := tasks.NewTracker()
	stager := importer.NewStager(cfg.Paths.StagingDir, nil)
	if _, err := stager.Stage(tracker.Create("stage-1"), filepath.Join(cfg.Paths.OriginalsDir, "absent")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestAnalyzeClassifiesFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteTree(t, cfg.Paths.StagingDir,
		"dated.jpg",
		"sub/undated.jpg",
		"sub/notes.txt",
	)

	store := testsupport.NewFakeMetadataStore()
	store.Dates["dated.jpg"] = time.Date(2021, 3, 15, 8, 30, 0, 0, time.UTC)

	tracker := tasks.NewTracker()
	token := tracker.Create("analyze-1")

	analyzer := importer.NewAnalyzer(cfg.Paths.StagingDir, store, nil)
	source := filepath.Join(cfg.Paths.OriginalsDir, "batch")
	analysis, err := analyzer.Analyze(context.Background(), token, source, "", "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(analysis.FilesWithDates) != 1 {
		t.Fatalf("dated = %d, want 1", len(analysis.FilesWithDates))
	}
	dated := analysis.FilesWithDates[0]
	if dated.Filename != "dated.jpg" || dated.Date != "2021-03-15 08:30:00" {
		t.Fatalf("unexpected dated record: %+v", dated)
	}
	if dated.FileDate == "" {
		t.Fatal("expected a filesystem date on the dated record")
	}

	if len(analysis.FilesWithoutDates) != 1 {
		t.Fatalf("undated = %d, want 1", len(analysis.FilesWithoutDates))
	}
	undated := analysis.FilesWithoutDates[0]
	if undated.Filename != "undated.jpg" {
		t.Fatalf("unexpected undated record: %+v", undated)
	}
	if undated.Guesses.FileDate == "" {
		t.Fatal("undated record should carry the filesystem date guess")
	}

	if len(analysis.IgnoredFiles) != 1 || analysis.IgnoredFiles[0].Filename != "notes.txt" {
		t.Fatalf("unexpected ignored bucket: %+v", analysis.IgnoredFiles)
	}
	if analysis.OriginalPath != source {
		t.Fatalf("original path = %q", analysis.OriginalPath)
	}
	if analysis.TotalFiles() != 3 {
		t.Fatalf("total files = %d, want 3", analysis.TotalFiles())
	}

	got := tracker.Get("analyze-1")
	if got.Status != tasks.StatusCompleted || got.ProcessedFiles != 3 || got.TotalFiles != 3 {
		t.Fatalf("unexpected terminal state: %+v", got)
	}
}

func TestAnalyzeRangeFiltersGuesses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteTree(t, cfg.Paths.StagingDir, "2019/06/holiday.jpg")

	store := testsupport.NewFakeMetadataStore()
	tracker := tasks.NewTracker()

	analyzer := importer.NewAnalyzer(cfg.Paths.StagingDir, store, nil)
	analysis, err := analyzer.Analyze(context.Background(), tracker.Create("analyze-1"),
		cfg.Paths.OriginalsDir, "2021-01-01 00:00:00", "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(analysis.FilesWithoutDates) != 1 {
		t.Fatalf("undated = %d, want 1", len(analysis.FilesWithoutDates))
	}
	// The 2019/06 path candidate falls below the start bound.
	if got := analysis.FilesWithoutDates[0].Guesses.Pathname; got != "" {
		t.Fatalf("pathname guess should be filtered, got %q", got)
	}
}

func TestAnalyzeCancelledByFlush(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteTree(t, cfg.Paths.StagingDir, "a.jpg")

	tracker := tasks.NewTracker()
	token := tracker.Create("analyze-1")
	tracker.Flush()

	analyzer := importer.NewAnalyzer(cfg.Paths.StagingDir, testsupport.NewFakeMetadataStore(), nil)
	if _, err := analyzer.Analyze(context.Background(), token, cfg.Paths.OriginalsDir, "", ""); !errors.Is(err, importer.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}
