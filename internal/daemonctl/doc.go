// Package daemonctl orchestrates the daemon process from the CLI: launching
// a detached daemon, waiting for its IPC socket, and requesting shutdown.
package daemonctl
