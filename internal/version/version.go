// Package version carries build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Name is the program name used in banners and the version command.
const Name = "scalerwatch"

var (
	// Version is the application version, set via ldflags during build.
	Version = "dev"
	// GitCommit is the git commit hash, set via ldflags during build.
	GitCommit = "unknown"
	// BuildDate is the build timestamp, set via ldflags during build.
	BuildDate = "unknown"
)

// Info contains version and build metadata.
type Info struct {
	Version   string `json:"version" example:"1.2.0" doc:"Release version"`
	GitCommit string `json:"git_commit" doc:"Source revision"`
	BuildDate string `json:"build_date" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go toolchain"`
	Platform  string `json:"platform" example:"linux/arm" doc:"Target OS and architecture"`
}

// Get returns version and build information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: commit(GitCommit, debug.ReadBuildInfo),
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a one-line banner: "scalerwatch dev (unknown, linux/arm)".
func (i Info) String() string {
	return fmt.Sprintf("%s %s (%s, %s)", Name, i.Version, i.GitCommit, i.Platform)
}

// commit falls back to the vcs.revision recorded by the Go toolchain when
// no commit was injected, shortened to 12 characters.
func commit(injected string, read func() (*debug.BuildInfo, bool)) string {
	if injected != "unknown" {
		return injected
	}
	bi, ok := read()
	if !ok {
		return injected
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return s.Value[:min(len(s.Value), 12)]
		}
	}
	return injected
}
