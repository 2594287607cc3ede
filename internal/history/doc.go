// Package history records completed pipeline runs in SQLite so past stage,
// analyze, and commit operations can be reviewed after their task entries
// are flushed.
package history
