// Package version provides build version information and the identity the
// client reports to servers.
//
// Version and git commit are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/apiguard/version.Version=1.0.0"
//
// UserAgent returns the default User-Agent header and ClientContext the
// environment block attached to remote log entries.
package version
