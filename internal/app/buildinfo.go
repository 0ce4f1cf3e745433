package app

import "fmt"

// Build information, set with -ldflags "-X .../internal/app.BuildVersion=..."
// at release time.
var (
	BuildVersion = "0.0.0-dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// VersionString is the one-line version banner printed by -version.
func VersionString() string {
	return fmt.Sprintf("goreadable %s (%s, %s)", BuildVersion, BuildCommit, BuildDate)
}
