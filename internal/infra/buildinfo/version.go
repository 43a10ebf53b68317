package buildinfo

import (
	"log/slog"
	"runtime"
)

// Build-time variables (set via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = ""
)

// Info contains build information.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// Get returns the build information.
func Get() Info {
	goVersion := GoVersion
	if goVersion == "" {
		goVersion = runtime.Version()
	}
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: goVersion,
	}
}

// String returns "version (commit) built at time".
func String() string {
	return Version + " (" + Commit + ") built at " + BuildTime
}

// LogAttrs returns the build information as log attributes.
func LogAttrs() []any {
	info := Get()
	return []any{
		slog.String("version", info.Version),
		slog.String("commit", info.Commit),
		slog.String("build_time", info.BuildTime),
		slog.String("go_version", info.GoVersion),
	}
}
