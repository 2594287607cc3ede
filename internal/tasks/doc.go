// Package tasks tracks long-running operations so a poll loop can observe
// their progress and collect a terminal payload.
//
// Cancellation is cooperative: flushing the registry invalidates every task
// id, and workers abort at their next checkpoint when Token.Update returns
// false. Nothing here persists across restarts.
package tasks
