package ipc

import (
	"shoebox/internal/daemon"
	"shoebox/internal/history"
	"shoebox/internal/library"
	"shoebox/internal/tasks"
)

// StatusRequest asks for daemon runtime information.
type StatusRequest struct{}

// StatusResponse carries daemon runtime information.
type StatusResponse struct {
	Status daemon.Status `json:"status"`
}

// FoldersRequest asks for the child rows of a folder. An empty path means
// the originals root.
type FoldersRequest struct {
	Path string `json:"path"`
}

// FoldersResponse carries tri-state display rows.
type FoldersResponse struct {
	Path    string                `json:"path"`
	Folders []library.ChildStatus `json:"folders"`
}

// SetProcessedRequest flags a folder, optionally every descendant leaf.
type SetProcessedRequest struct {
	Path      string `json:"path"`
	Processed bool   `json:"processed"`
	Recursive bool   `json:"recursive"`
}

// SetProcessedResponse acknowledges the flag change.
type SetProcessedResponse struct {
	Updated bool `json:"updated"`
}

// RescanRequest triggers a tree rebuild from disk.
type RescanRequest struct{}

// RescanResponse acknowledges the rebuild.
type RescanResponse struct {
	FolderCount int `json:"folder_count"`
}

// StageRequest starts a staging run.
type StageRequest struct {
	Source string `json:"source"`
}

// StageResponse returns the task id to poll.
type StageResponse struct {
	TaskID string `json:"task_id"`
}

// AnalyzeRequest starts an analyze run over the staging area.
type AnalyzeRequest struct {
	Source    string `json:"source"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// AnalyzeResponse returns the task id to poll.
type AnalyzeResponse struct {
	TaskID string `json:"task_id"`
}

// CommitRequest starts a disposition run against the retained analysis.
type CommitRequest struct {
	Decisions map[string]string `json:"decisions"`
}

// CommitResponse returns the task id to poll.
type CommitResponse struct {
	TaskID string `json:"task_id"`
}

// TaskRequest polls one task.
type TaskRequest struct {
	ID string `json:"id"`
}

// TaskResponse carries the task progress entry; unknown ids yield the
// not_found sentinel rather than an error.
type TaskResponse struct {
	Progress tasks.Progress `json:"progress"`
}

// FlushTasksRequest aborts every in-flight task.
type FlushTasksRequest struct{}

// FlushTasksResponse acknowledges the flush.
type FlushTasksResponse struct {
	Flushed bool `json:"flushed"`
}

// HistoryRequest lists recorded runs.
type HistoryRequest struct {
	Limit int  `json:"limit"`
	Clear bool `json:"clear"`
}

// HistoryResponse carries recorded runs, newest first.
type HistoryResponse struct {
	Runs []history.Run `json:"runs"`
}

// BackupsRequest lists snapshot backups.
type BackupsRequest struct{}

// BackupsResponse carries backups, newest first.
type BackupsResponse struct {
	Backups []library.BackupInfo `json:"backups"`
}

// RestoreBackupRequest replaces the live tree with a backup.
type RestoreBackupRequest struct {
	Path string `json:"path"`
}

// RestoreBackupResponse acknowledges the restore.
type RestoreBackupResponse struct {
	Restored bool `json:"restored"`
}

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse acknowledges the shutdown request.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
