// Package version centralizes build information and the versions of the
// logical components whose persisted data depends on their shape.
//
// Stored sessions embed the prompt history and the fetch ledger. Bumping
// ComponentVersions.State changes every session key, so state written by an
// older build is never decoded by a newer one; it simply expires.
package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X .../internal/version.Version=...".
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// ComponentVersions holds the version strings of the persisted components.
var ComponentVersions = struct {
	// State covers the encoded conversation state and its ledger keys.
	State string
	// Tools covers the tool names and their result payloads.
	Tools string
}{
	State: "v1",
	Tools: "v1",
}

type BuildInfo struct {
	Version, BuildDate, GitCommit, GoVersion, Platform string
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s %s)", b.Version, b.GitCommit, b.BuildDate, b.GoVersion, b.Platform)
}

// VersionedKey builds a storage key that changes whenever a component whose
// data it holds changes.
//
// Example output: "conversation:sv1_tv1:9b2e..."
func VersionedKey(prefix, id string) string {
	return fmt.Sprintf("%s:sv%s_tv%s:%s", prefix, ComponentVersions.State, ComponentVersions.Tools, id)
}
