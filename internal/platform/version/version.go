// Package version reports the build the server was compiled from.
package version

import (
	"runtime"
	"runtime/debug"
	"sync"
)

// Set with -ldflags "-X github.com/energypatrikhu/obs-ui/internal/platform/version.Version=...".
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
}

var vcsInfo = sync.OnceValue(func() Info {
	info := Info{Commit: "unknown", BuildTime: "unknown"}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.time":
			info.BuildTime = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
})

// Get prefers the ldflags values and falls back to the VCS stamp the Go
// toolchain embeds.
func Get() Info {
	info := vcsInfo()
	info.Version = Version
	info.GoVersion = runtime.Version()
	if Commit != "" {
		info.Commit = Commit
	}
	if BuildTime != "" {
		info.BuildTime = BuildTime
	}
	return info
}

// UserAgent identifies the companion server to the Twitch API.
func UserAgent() string {
	return "obs-ui/" + Version + " (" + runtime.Version() + ")"
}
