// Package version carries build metadata injected with -ldflags.
package version

import "fmt"

var (
	// Version is the semantic version of the binary. Overridden at build time.
	Version = "dev"
	// Commit is the git commit hash. Overridden at build time.
	Commit = "unknown"
	// BuildDate is the build timestamp. Overridden at build time.
	BuildDate = "unknown"
)

// Describe renders build metadata together with the classification rule table
// version, since output for the same backup depends on both.
func Describe(rulesVersion int) string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\nrules: v%d\n", Version, Commit, BuildDate, rulesVersion)
}
