// Package buildinfo exposes build metadata injected at link time.
//
// Values are set via -ldflags, e.g.:
//
//	go build -ldflags "-X github.com/m3rciful/botforge/core/buildinfo.Version=v1.2.3 \
//	  -X github.com/m3rciful/botforge/core/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import "runtime/debug"

var (
	// Version is the semantic version of the binary.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = ""
	// Date is the UTC build timestamp in RFC 3339 format.
	Date = ""
)

func init() {
	if Commit != "" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			Commit = s.Value[:7]
			return
		}
	}
}

// String returns "version(+commit)" suitable for logs and /start output.
func String() string {
	if Commit == "" {
		return Version
	}
	return Version + "+" + Commit
}
