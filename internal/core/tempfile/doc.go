// Package tempfile manages per-connection scratch files.
//
// A Manager owns one scratch directory that is created lazily on the first
// Create call and removed, together with everything in it, by Clear. A
// connection that never spools anything never touches the filesystem.
package tempfile
