// Package version holds build metadata for the autopage binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/autopage/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Current returns Version, falling back to the module version recorded by
// the Go toolchain when no ldflags were given.
func Current() string {
	if Version != "unknown" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}

// String formats the full build description for --version output.
func String() string {
	return fmt.Sprintf("autopage %s (commit %s, built %s)", Current(), GitCommit, BuildTime)
}
