// Package buildinfo carries the version stamped in with -ldflags:
//
//	go build -ldflags "-X carousel/internal/buildinfo.Version=v1.2.0 -X carousel/internal/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import "log/slog"

// Version is set at build time via -ldflags.
var Version = "dev"

// Commit is set at build time via -ldflags.
var Commit = "unknown"

// Date is set at build time via -ldflags.
var Date = "unknown"

// Short returns a compact build identifier for the window title and logs.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// Attr groups the build fields for structured logs.
func Attr() slog.Attr {
	return slog.Group("build",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("date", Date))
}
