package config

// Version is the sheetsight binary version.
// Set at build time via: -ldflags "-X github.com/sheetsightai/sheetsight/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
