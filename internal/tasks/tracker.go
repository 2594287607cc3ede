package tasks

import (
	"sync"

	"github.com/google/uuid"
)

// Status values reported for a tracked task.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusNotFound  = "not_found"
)

// Progress is the pollable state of one task. Data stays empty until the
// task completes, at which point it carries the operation-specific result.
type Progress struct {
	Status         string  `json:"status"`
	Progress       float64 `json:"progress"`
	ProcessedFiles int     `json:"processed_files"`
	TotalFiles     int     `json:"total_files"`
	Data           any     `json:"data"`
}

// Tracker is a synchronized registry of in-flight long-running operations
// keyed by opaque task ids. It is not meant to survive process restarts and
// holds task data only long enough for a poll loop to retrieve the terminal
// payload once. There is no per-task removal and no TTL: staleness is
// bounded by Flush, which the boundary calls on each fresh top-level
// interaction.
type Tracker struct {
	mu    sync.Mutex
	tasks map[string]*Progress
}

// NewTracker constructs an empty registry.
func NewTracker() *Tracker {
	return &Tracker{tasks: make(map[string]*Progress)}
}

// NewTaskID generates an opaque unique task id.
func NewTaskID() string {
	return uuid.NewString()
}

// Create registers a fresh running task under the given id and returns a
// Token the worker uses for progress checkpoints.
func (t *Tracker) Create(id string) *Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tasks[id] = &Progress{
		Status: StatusRunning,
		Data:   map[string]any{},
	}
	return &Token{tracker: t, id: id}
}

// Update records a progress checkpoint. It returns false when the id is
// unknown, which signals cooperative cancellation: a registry flush between
// checkpoints tells the worker to stop.
func (t *Tracker) Update(id string, progress float64, processed, total int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.tasks[id]
	if !ok {
		return false
	}
	task.Progress = progress
	task.ProcessedFiles = processed
	task.TotalFiles = total
	return true
}

// Complete marks the task finished with the terminal payload. Completing an
// unknown id is a no-op.
func (t *Tracker) Complete(id string, data any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.tasks[id]
	if !ok {
		return
	}
	task.Status = StatusCompleted
	task.Progress = 100
	task.Data = data
}

// Get returns the task's progress, or a not_found sentinel when the id is
// unknown. It never panics.
func (t *Tracker) Get(id string) Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	if task, ok := t.tasks[id]; ok {
		return *task
	}
	return Progress{
		Status: StatusNotFound,
		Data:   map[string]any{},
	}
}

// Flush clears the entire registry atomically, cancelling every in-flight
// worker at its next checkpoint.
func (t *Tracker) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tasks = make(map[string]*Progress)
}

// Token hands a worker its cancellation-aware view of one task. Workers
// report progress through the token and stop when Update returns false.
type Token struct {
	tracker *Tracker
	id      string
}

// ID returns the task id for the token.
func (tk *Token) ID() string {
	return tk.id
}

// Update records a checkpoint; a false return means the task was flushed
// and the worker must abort without completing.
func (tk *Token) Update(progress float64, processed, total int) bool {
	return tk.tracker.Update(tk.id, progress, processed, total)
}

// Complete publishes the terminal payload.
func (tk *Token) Complete(data any) {
	tk.tracker.Complete(tk.id, data)
}
