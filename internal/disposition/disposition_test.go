package disposition_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shoebox/internal/config"
	"shoebox/internal/disposition"
	"shoebox/internal/importer"
	"shoebox/internal/tasks"
	"shoebox/internal/testsupport"
)

func stageAndAnalyze(t *testing.T, cfg *config.Config, store *testsupport.FakeMetadataStore, relPaths ...string) importer.Analysis {
	t.Helper()
	testsupport.WriteTree(t, cfg.Paths.StagingDir, relPaths...)

	tracker := tasks.NewTracker()
	analyzer := importer.NewAnalyzer(cfg.Paths.StagingDir, store, nil)
	analysis, err := analyzer.Analyze(context.Background(), tracker.Create("a"), cfg.Paths.OriginalsDir, "", "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return analysis
}

func newProcessor(cfg *config.Config, store *testsupport.FakeMetadataStore) *disposition.Processor {
	return disposition.NewProcessor(cfg.Paths.StagingDir, cfg.Paths.ExportDir, cfg.Paths.LogDir, store, nil)
}

func TestProcessAppliesDecisions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewFakeMetadataStore()
	analysis := stageAndAnalyze(t, cfg, store, "edit.jpg", "trash.jpg", "keep.jpg")

	decisions := map[string]string{
		filepath.Join(cfg.Paths.StagingDir, "edit.jpg"):  "2023-07-04",
		filepath.Join(cfg.Paths.StagingDir, "trash.jpg"): disposition.DecisionDelete,
		filepath.Join(cfg.Paths.StagingDir, "keep.jpg"):  disposition.DecisionIgnore,
	}

	tracker := tasks.NewTracker()
	token := tracker.Create("commit-1")
	result, err := newProcessor(cfg, store).Process(context.Background(), token, analysis, decisions)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(result.FilesEdited) != 1 || !strings.Contains(result.FilesEdited[0], "2023-07-04 00:00:00") {
		t.Fatalf("unexpected edited list: %v", result.FilesEdited)
	}
	if _, ok := store.Written["edit.jpg"]; !ok {
		t.Fatal("expected a capture date write for edit.jpg")
	}
	if len(result.FilesDeleted) != 1 || len(result.FilesIgnored) != 1 {
		t.Fatalf("deleted=%v ignored=%v", result.FilesDeleted, result.FilesIgnored)
	}
	// All three staged files leave staging: trash.jpg removed, the others
	// relocated to export.
	if len(result.FilesCopied) != 2 {
		t.Fatalf("copied = %v", result.FilesCopied)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	for _, rel := range []string{"edit.jpg", "keep.jpg"} {
		if _, err := os.Stat(filepath.Join(cfg.Paths.ExportDir, rel)); err != nil {
			t.Fatalf("expected exported %s: %v", rel, err)
		}
		if _, err := os.Stat(filepath.Join(cfg.Paths.StagingDir, rel)); !os.IsNotExist(err) {
			t.Fatalf("staged %s should be gone after relocation", rel)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.StagingDir, "trash.jpg")); !os.IsNotExist(err) {
		t.Fatal("trash.jpg should be deleted")
	}

	got := tracker.Get("commit-1")
	if got.Status != tasks.StatusCompleted || got.ProcessedFiles != 6 || got.TotalFiles != 6 {
		t.Fatalf("unexpected terminal state: %+v", got)
	}
}

func TestProcessWipesExportBeforeRelocation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewFakeMetadataStore()
	analysis := stageAndAnalyze(t, cfg, store, "fresh.jpg")

	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ExportDir, "leftover.jpg"), 8)

	tracker := tasks.NewTracker()
	if _, err := newProcessor(cfg, store).Process(context.Background(), tracker.Create("c"), analysis, nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.ExportDir, "leftover.jpg")); !os.IsNotExist(err) {
		t.Fatal("previous export content should be wiped")
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.ExportDir, "fresh.jpg")); err != nil {
		t.Fatalf("expected exported fresh.jpg: %v", err)
	}
}

func TestProcessRefusesUnsetExportDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewFakeMetadataStore()
	analysis := stageAndAnalyze(t, cfg, store, "a.jpg")

	proc := disposition.NewProcessor(cfg.Paths.StagingDir, "", cfg.Paths.LogDir, store, nil)
	tracker := tasks.NewTracker()
	if _, err := proc.Process(context.Background(), tracker.Create("c"), analysis, nil); err == nil {
		t.Fatal("expected refusal with unset export dir")
	}
}

func TestProcessRecordsWriteFailuresAndContinues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewFakeMetadataStore()
	store.FailWrites = true
	analysis := stageAndAnalyze(t, cfg, store, "edit.jpg", "other.jpg")

	decisions := map[string]string{
		filepath.Join(cfg.Paths.StagingDir, "edit.jpg"): "2023-07-04",
	}

	tracker := tasks.NewTracker()
	result, err := newProcessor(cfg, store).Process(context.Background(), tracker.Create("c"), analysis, decisions)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "edit.jpg") {
		t.Fatalf("expected one write error, got %v", result.Errors)
	}
	// The failed edit does not stop relocation of either file.
	if len(result.FilesCopied) != 2 {
		t.Fatalf("copied = %v", result.FilesCopied)
	}
}

func TestProcessUnrecognizedDecisionIsAnError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewFakeMetadataStore()
	analysis := stageAndAnalyze(t, cfg, store, "odd.jpg")

	decisions := map[string]string{
		filepath.Join(cfg.Paths.StagingDir, "odd.jpg"): "not-a-date",
	}

	tracker := tasks.NewTracker()
	result, err := newProcessor(cfg, store).Process(context.Background(), tracker.Create("c"), analysis, decisions)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "was not processed") {
		t.Fatalf("expected not-processed error, got %v", result.Errors)
	}
}

func TestProcessRerunRecordsErrorsForMissingFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewFakeMetadataStore()
	analysis := stageAndAnalyze(t, cfg, store, "a.jpg", "b.jpg")

	tracker := tasks.NewTracker()
	proc := newProcessor(cfg, store)
	if _, err := proc.Process(context.Background(), tracker.Create("c1"), analysis, nil); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Second run against the same analysis: every staged file is gone, so
	// each relocation records an error and the run still completes.
	result, err := proc.Process(context.Background(), tracker.Create("c2"), analysis, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors on rerun, got %v", result.Errors)
	}
	if len(result.FilesCopied) != 0 {
		t.Fatalf("nothing should copy on rerun, got %v", result.FilesCopied)
	}
}

func TestProcessWritesReport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewFakeMetadataStore()
	analysis := stageAndAnalyze(t, cfg, store, "keep.jpg")

	decisions := map[string]string{
		filepath.Join(cfg.Paths.StagingDir, "keep.jpg"): disposition.DecisionIgnore,
	}

	tracker := tasks.NewTracker()
	result, err := newProcessor(cfg, store).Process(context.Background(), tracker.Create("c"), analysis, decisions)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.ReportPath == "" {
		t.Fatal("expected a report path")
	}
	contents, err := os.ReadFile(result.ReportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	text := string(contents)
	for _, section := range []string{"Process Images Report", "Errors", "Files Edited", "Files Deleted", "Files Ignored", "Files Copied", "End of Report"} {
		if !strings.Contains(text, section) {
			t.Fatalf("report missing %q:\n%s", section, text)
		}
	}
	if !strings.Contains(filepath.Base(result.ReportPath), "report_") {
		t.Fatalf("unexpected report name: %s", result.ReportPath)
	}
}

func TestProcessAutoFlagHook(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewFakeMetadataStore()
	analysis := stageAndAnalyze(t, cfg, store, "a.jpg")

	proc := newProcessor(cfg, store)
	flagged := ""
	proc.AutoFlag = func(path string) { flagged = path }

	tracker := tasks.NewTracker()
	if _, err := proc.Process(context.Background(), tracker.Create("c"), analysis, nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if flagged != cfg.Paths.OriginalsDir {
		t.Fatalf("auto-flag path = %q, want %q", flagged, cfg.Paths.OriginalsDir)
	}
}

func TestProcessCancelledByFlush(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewFakeMetadataStore()
	analysis := stageAndAnalyze(t, cfg, store, "a.jpg")

	tracker := tasks.NewTracker()
	token := tracker.Create("c")
	tracker.Flush()

	if _, err := newProcessor(cfg, store).Process(context.Background(), token, analysis, nil); !errors.Is(err, disposition.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}
