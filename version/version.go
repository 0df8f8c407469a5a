package version

// Set at build time with -ldflags "-X github.com/ChristianF88/splatsort/version.Version=..."
var (
	Version = "dev"
	Date    = ""
)
