// Package immich uploads image assets to an Immich-compatible server. The
// client shares no pipeline state; it walks a path and posts each file as a
// multipart asset with the configured API key.
package immich
