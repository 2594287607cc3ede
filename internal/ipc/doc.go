// Package ipc provides the JSON-RPC surface between the shoebox CLI and the
// daemon, carried over a Unix domain socket.
package ipc
