// Package buildinfo carries the version identity of a qido binary.
package buildinfo

// Injected via ldflags for release builds; empty for local/dev builds,
// where the version command falls back to module build info.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
