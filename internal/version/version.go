package version

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String renders the build identity on one line for the CLI version command.
func String() string {
	return "bencher " + Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
