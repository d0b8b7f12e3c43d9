// Package version holds build-time version information.
package version

import "fmt"

// Set via ldflags, for example:
// go build -ldflags "-X coursegen/internal/version.Version=1.0.0 -X coursegen/internal/version.Commit=$(git rev-parse HEAD)"
var (
	// Version is the semantic version of the engine
	Version = "0.3.0"

	// Commit is the git revision the binary was built from
	Commit = "unknown"

	// BuildDate is the build timestamp
	BuildDate = "unknown"
)

// Info returns the version, with a short commit suffix when one was stamped.
func Info() string {
	if Commit == "unknown" || len(Commit) <= 7 {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit[:7])
}

// Full returns the multi-line version report used by the version command.
func Full() string {
	return fmt.Sprintf("coursegen version %s\nCommit: %s\nBuilt: %s", Version, Commit, BuildDate)
}
