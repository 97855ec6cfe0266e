// Package version holds the build stamp of the plinth binary.
package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X github.com/plinth-dev/plinth/internal/version.Version=..."
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build information of this binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return i.Version
}

// Full is the line printed by `plinth version`.
func (i Info) Full() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s %s)", i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform)
}

// UserAgent identifies plinth to RPC providers, e.g. "plinth/1.2.0 (linux/amd64)".
func UserAgent() string {
	return fmt.Sprintf("plinth/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
