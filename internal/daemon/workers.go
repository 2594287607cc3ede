package daemon

import (
	"errors"
	"strings"
	"time"

	"shoebox/internal/disposition"
	"shoebox/internal/history"
	"shoebox/internal/importer"
	"shoebox/internal/logging"
	"shoebox/internal/tasks"
)

// StageAsync launches a staging run and returns its task id immediately.
// Progress is polled through Task.
func (d *Daemon) StageAsync(source string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", errors.New("stage requires a source path")
	}

	id := tasks.NewTaskID()
	token := d.tracker.Create(id)
	startedAt := time.Now()

	go func() {
		stager := importer.NewStager(d.cfg.Paths.StagingDir, logging.NewComponentLogger(d.logger, "stager"))
		result, err := stager.Stage(token, source)
		if err != nil {
			d.finishWithError(token, err, "staging failed")
			return
		}
		d.recordRun(history.Run{
			TaskID:     id,
			Kind:       history.KindStage,
			SourcePath: source,
			FilesTotal: result.FilesCopied,
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
		})
	}()

	return id, nil
}

// AnalyzeAsync launches an analyze run over the staging area and returns its
// task id. The resulting analysis is retained for the next commit.
func (d *Daemon) AnalyzeAsync(source, startDate, endDate string) (string, error) {
	id := tasks.NewTaskID()
	token := d.tracker.Create(id)
	startedAt := time.Now()

	go func() {
		analyzer := importer.NewAnalyzer(d.cfg.Paths.StagingDir, d.store, logging.NewComponentLogger(d.logger, "analyzer"))
		analysis, err := analyzer.Analyze(d.workerContext(), token, source, startDate, endDate)
		if err != nil {
			d.finishWithError(token, err, "analysis failed")
			return
		}

		d.mu.Lock()
		d.lastAnalysis = &analysis
		d.mu.Unlock()

		d.recordRun(history.Run{
			TaskID:     id,
			Kind:       history.KindAnalyze,
			SourcePath: source,
			FilesTotal: analysis.TotalFiles(),
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
		})
	}()

	return id, nil
}

// CommitAsync launches a disposition run against the retained analysis and
// returns its task id. Requires a completed analyze run.
func (d *Daemon) CommitAsync(decisions map[string]string) (string, error) {
	d.mu.Lock()
	analysis := d.lastAnalysis
	d.mu.Unlock()
	if analysis == nil {
		return "", errors.New("no analysis available; run analyze first")
	}

	id := tasks.NewTaskID()
	token := d.tracker.Create(id)
	startedAt := time.Now()

	go func() {
		processor := disposition.NewProcessor(
			d.cfg.Paths.StagingDir,
			d.cfg.Paths.ExportDir,
			d.cfg.Paths.LogDir,
			d.store,
			logging.NewComponentLogger(d.logger, "disposition"),
		)
		if d.cfg.Import.AutoFlagProcessed {
			processor.AutoFlag = func(path string) {
				if err := d.SetProcessed(path, true, true); err != nil {
					d.logger.Warn("auto-flag failed",
						logging.String("path", path),
						logging.Error(err))
				}
			}
		}

		result, err := processor.Process(d.workerContext(), token, *analysis, decisions)
		if err != nil {
			d.finishWithError(token, err, "commit failed")
			return
		}

		// The retained analysis is consumed: a rerun against relocated
		// files would only produce errors.
		d.mu.Lock()
		d.lastAnalysis = nil
		d.mu.Unlock()

		d.recordRun(history.Run{
			TaskID:       id,
			Kind:         history.KindCommit,
			SourcePath:   analysis.OriginalPath,
			FilesTotal:   analysis.TotalFiles(),
			FilesEdited:  len(result.FilesEdited),
			FilesDeleted: len(result.FilesDeleted),
			FilesCopied:  len(result.FilesCopied),
			ErrorCount:   len(result.Errors),
			ReportPath:   result.ReportPath,
			StartedAt:    startedAt,
			FinishedAt:   time.Now(),
		})
	}()

	return id, nil
}

// finishWithError records the failure in the task payload unless the task
// was flushed, in which case there is nothing left to report to.
func (d *Daemon) finishWithError(token *tasks.Token, err error, msg string) {
	if errors.Is(err, importer.ErrCancelled) || errors.Is(err, disposition.ErrCancelled) {
		d.logger.Info("task cancelled", logging.String(logging.FieldTaskID, token.ID()))
		return
	}
	d.logger.Error(msg,
		logging.String(logging.FieldTaskID, token.ID()),
		logging.Error(err))
	token.Complete(map[string]string{"error": err.Error()})
}

func (d *Daemon) recordRun(run history.Run) {
	if err := d.history.Record(d.workerContext(), run); err != nil {
		d.logger.Warn("history record failed",
			logging.String(logging.FieldTaskID, run.TaskID),
			logging.Error(err))
	}
}
