// Package version exposes build metadata stamped in via ldflags.
package version

// Build-time variables set by ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the raw version fields.
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}
