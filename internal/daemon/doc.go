// Package daemon coordinates the long-running shoebox process.
//
// It owns the folder status tree, launches staging, analysis, and commit
// workers, records completed runs in the history store, and watches for
// removable media. A flock-based lock prevents multiple daemon instances
// from mutating the same library.
package daemon
