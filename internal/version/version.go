package version

// Build metadata, overridden at release time with -ldflags. The defaults
// identify a local development build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = ""
	Dirty   = "false"
)
