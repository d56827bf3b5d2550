// Package buildinfo exposes version metadata stamped at build time.
package buildinfo

// Set via -ldflags "-X pghelp/internal/support/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
)
