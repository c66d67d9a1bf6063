// Package buildinfo reports the sesskeep-cli version.
//
// Release builds inject values with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/sesskeep-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Binaries built with "go install" instead pick up the module version and
// VCS stamp embedded by the toolchain.
package buildinfo

import (
	"runtime"
	"runtime/debug"
)

// Set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns the build information. Ldflags values win over the
// toolchain's embedded metadata.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fillFromModule(&info, bi)
	}
	return info
}

func fillFromModule(info *Info, bi *debug.BuildInfo) {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String returns "<version> (<commit>) built at <time>".
func String() string {
	i := Get()
	s := i.Version + " (" + i.Commit
	if i.Modified {
		s += ", modified"
	}
	return s + ") built at " + i.BuildTime
}

// UserAgent returns "<product>/<version>".
func UserAgent(product string) string {
	return product + "/" + Get().Version
}
