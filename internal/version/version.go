package version

// Version is the application version, set via build-time ldflags in release
// builds:
// go build -ldflags "-X github.com/asrafilll/monoserve/internal/version.Version=v1.2.0".
var Version = "dev"

// Build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)
