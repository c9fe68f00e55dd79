package version

import (
	"fmt"
	"runtime"
)

// Build-time variables injected via ldflags.
var (
	// Version is the semantic version of the application
	Version = "dev"
	// CommitHash is the git commit hash
	CommitHash = "unknown"
	// BuildDate is the date when the binary was built
	BuildDate = "unknown"
)

// Info represents version information.
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	Arch       string `json:"arch"`
}

// Get returns the current version information.
func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
}

// String returns a human-readable version string.
func (i Info) String() string {
	if i.CommitHash != "unknown" && len(i.CommitHash) > 7 {
		return fmt.Sprintf("%s (%s)", i.Version, i.CommitHash[:7])
	}
	return i.Version
}

// GetShort returns a short version string for display.
func GetShort() string {
	return Get().String()
}
