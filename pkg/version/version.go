// Package version exposes the build version string.
package version

// Version is the release identifier, overridden at build time via
// -ldflags "-X gcslink/pkg/version.Version=...".
var Version = "0.1.0-dev"
