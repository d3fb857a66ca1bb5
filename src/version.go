package ags

import (
	"fmt"
	"runtime/debug"
)

// Version is set at build time via
// `-ldflags "-X 'github.com/gsequencer/gsequencer-sub021/src.Version=X'"`.
var Version string

// VersionString assembles the banner from the linker-set Version and the
// VCS metadata embedded by the Go linker.
func VersionString() string {
	version := Version
	if version == "" {
		version = "!UNKNOWN!"
	}

	settings := map[string]string{}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			settings[s.Key] = s.Value
		}
	}

	revision, ok := settings["vcs.revision"]
	if !ok {
		revision = "UNKNOWN"
	}
	switch settings["vcs.modified"] {
	case "false":
	case "true":
		revision += "-DIRTY"
	default:
		revision += "-UNKNOWNDIRTY"
	}

	builtAt, ok := settings["vcs.time"]
	if !ok {
		builtAt = "UNKNOWN"
	}

	return fmt.Sprintf("AGS core - Version %s (revision %s, built at %s)", version, revision, builtAt)
}

// PrintVersion prints the version banner, optionally with the full build
// info for diagnostics.
func PrintVersion(verbose bool) {
	fmt.Println(VersionString())

	if verbose {
		if bi, ok := debug.ReadBuildInfo(); ok {
			fmt.Printf("\nBuildInfo: %+v\n", bi)
		}
	}
}
