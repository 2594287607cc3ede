// Command shoebox is the CLI for the shoebox photo-library daemon. It talks
// to a running daemon over a unix socket and exposes folder status, import
// staging, analysis, and commit operations.
package main
