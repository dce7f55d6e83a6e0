// Package misc keeps program identity: name, version and build hash.
package misc

import (
	"runtime/debug"
	"strings"
)

const (
	appName     = "lea"
	displayName = "Lea ePub anvil"
)

// version could be set at link time with -ldflags "-X lea/misc.version=..."
var version string

func GetAppName() string {
	return appName
}

// GetDisplayName returns human readable program name with version, it is
// used as author of generated texts and as generator in produced documents.
func GetDisplayName() string {
	return displayName + " " + GetVersion()
}

func GetVersion() string {
	if len(version) > 0 {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return strings.TrimPrefix(bi.Main.Version, "v")
	}
	return "dev"
}

func GetGitHash() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	var hash, dirty string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			hash = s.Value
		case "vcs.modified":
			if s.Value == "true" {
				dirty = "-dirty"
			}
		}
	}
	if len(hash) == 0 {
		return "unknown"
	}
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return hash + dirty
}
