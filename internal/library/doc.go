// Package library owns the folder status tree: the recursive structure that
// mirrors the photo library on disk and tracks which folders an operator has
// finished reviewing.
//
// The scanner builds fresh trees best-effort, the merger carries processed
// flags across rescans by path identity, and the snapshot store persists the
// result as flat JSON with timestamped backups and age-based retention. The
// partial display state is derived on demand for child listings and is never
// written to disk.
package library
