package conduit

import (
	"fmt"
	"runtime"
	"strings"
)

// Build metadata. GitCommit and BuildDate are meant to be set with -ldflags.
var (
	Version   = "v0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// UserAgent is the User-Agent sent when a request does not set one.
func UserAgent() string {
	return "conduit/" + strings.TrimPrefix(Version, "v")
}

// GetVersion returns a human-readable version string.
func GetVersion() string {
	return fmt.Sprintf("Conduit %s (commit: %s, built: %s, go: %s)",
		Version, GitCommit, BuildDate, GoVersion)
}

// GetVersionInfo returns version metadata as a map for logging / metrics.
func GetVersionInfo() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     GitCommit,
		"build_date": BuildDate,
		"go_version": GoVersion,
		"user_agent": UserAgent(),
	}
}
