// Package version reports the build version of the binary
package version

import (
	"runtime/debug"
)

// BuildInfo holds version information about the build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Set via -ldflags "-X 'ligprep/internal/core/version.version=v0.1.0'
// -X 'ligprep/internal/core/version.commit=abcd' -X 'ligprep/internal/core/version.date=2026-01-02'"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build information. Commit and date fall back to the
// vcs stamps the go tool embeds when ldflags did not set them
func Info() BuildInfo {
	bi := BuildInfo{Service: "ligprep", Version: version, Commit: commit, Date: date}
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		fillFromVCS(&bi, info.Settings)
	}
	return bi
}

func fillFromVCS(bi *BuildInfo, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if bi.Commit == "none" && s.Value != "" {
				bi.Commit = s.Value
			}
		case "vcs.time":
			if bi.Date == "unknown" && s.Value != "" {
				bi.Date = s.Value
			}
		}
	}
}

// String renders "ligprep dev (none, unknown)"
func (b BuildInfo) String() string {
	return b.Service + " " + b.Version + " (" + b.Commit + ", " + b.Date + ")"
}
