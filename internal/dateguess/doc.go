// Package dateguess recovers candidate capture dates from filenames, path
// segments, and filesystem timestamps.
//
// All functions are pure: a fixed-precedence pattern search with a
// [1900, 2099] year gate, normalization into the canonical
// "YYYY-MM-DD HH:MM:SS" form, and an inclusive range filter applied to each
// candidate independently.
package dateguess
