// Package version holds build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	// Version is the semantic version (set by ldflags during build)
	Version = "dev"
	// Commit is the git commit hash (set by ldflags during build)
	Commit = "unknown"
	// Date is the build date (set by ldflags during build)
	Date = "unknown"
)

// Info contains complete version information
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`

	// Release is false for dev builds and prereleases such as 1.2.0-rc1.
	Release bool `json:"release" yaml:"release"`
}

// GetInfo returns complete version information
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		Release:   IsRelease(Version),
	}
}

// IsRelease reports whether v is a strict semantic version, with or without
// a leading "v", that carries no prerelease suffix.
func IsRelease(v string) bool {
	parsed, err := semver.StrictNewVersion(strings.TrimPrefix(v, "v"))
	return err == nil && parsed.Prerelease() == ""
}

func (i Info) shortCommit() string {
	if len(i.Commit) > 8 {
		return i.Commit[:8]
	}
	return i.Commit
}

// String returns the line printed by 'heyraji version --verbose'.
func (i Info) String() string {
	return fmt.Sprintf("HeyRaji %s (%s) built %s with %s for %s",
		i.Version, i.shortCommit(), i.Date, i.GoVersion, i.Platform)
}

// Short returns just the version number
func (i Info) Short() string {
	return i.Version
}

// UserAgent is sent with every auth backend request.
func (i Info) UserAgent() string {
	return fmt.Sprintf("heyraji-cli/%s (%s)", i.Version, i.Platform)
}
