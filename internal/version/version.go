// Package version carries build metadata injected with -ldflags -X.
package version

import (
	"fmt"
	"runtime"
)

// Name is the program name used in logs, the journal and the API title.
const Name = "livecast"

// Build metadata, overridden with -ldflags "-X .../version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	BuildID   = "unknown"
)

// Info contains version and build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	BuildID   string `json:"build_id"`
	GoVersion string `json:"go_version"`
	Compiler  string `json:"compiler"`
	Platform  string `json:"platform"`
}

// Get returns version and build information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		BuildID:   BuildID,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns a one-line description such as
// "livecast dev (unknown, built unknown, go1.24 linux/arm64)".
func (i Info) String() string {
	return fmt.Sprintf("%s %s (%s, built %s, %s %s)", Name, i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}

// String returns the one-line description of this build.
func String() string {
	return Get().String()
}
