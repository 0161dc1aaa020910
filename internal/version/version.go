package version

// Version is set at build time with -ldflags "-X padrelay/internal/version.Version=..."
var Version = "dev"
