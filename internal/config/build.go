package config

// Linker-injected build metadata, e.g.
//
//	go build -ldflags "-X rainalert/internal/config.version=1.2.3 \
//	    -X rainalert/internal/config.commit=$(git rev-parse --short HEAD) \
//	    -X rainalert/internal/config.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo constructs a BuildInfo from the linker-injected variables.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}

// String renders the build info for the version command and startup log.
func (b BuildInfo) String() string {
	return b.Version + " (commit " + b.Commit + ", built " + b.BuildTime + ")"
}
