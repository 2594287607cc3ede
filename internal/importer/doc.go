// Package importer stages originals into the working area and analyzes the
// staged files into dated, undated, and ignored buckets with per-file date
// guesses. Both operations report progress through a task token and abort
// cooperatively when the token is flushed.
package importer
