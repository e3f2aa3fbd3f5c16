package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	// These variables are set at build time using -ldflags
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Product is the library name used in the User-Agent header.
const Product = "apiguard"

// Info represents version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	IsDirty   bool   `json:"is_dirty,omitempty"`
}

// GetVersionInfo returns version information, filling gaps from the
// embedded VCS build settings.
func GetVersionInfo() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = setting.Value
				}
			case "vcs.modified":
				info.IsDirty = setting.Value == "true"
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = setting.Value
				}
			}
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

// GetShortVersion returns version plus abbreviated commit when known.
func GetShortVersion() string {
	info := GetVersionInfo()
	if info.GitCommit == "" {
		return info.Version
	}
	if info.IsDirty {
		return fmt.Sprintf("%s-%s-dirty", info.Version, info.GitCommit)
	}
	return fmt.Sprintf("%s-%s", info.Version, info.GitCommit)
}

// UserAgent returns the default User-Agent header value, e.g.
// "apiguard/1.2.0 (linux; amd64) go1.26.0". A non-empty app is prepended.
func UserAgent(app string) string {
	ua := fmt.Sprintf("%s/%s (%s; %s) %s", Product, Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
	if app = strings.TrimSpace(app); app != "" {
		return app + " " + ua
	}
	return ua
}

// ClientContext describes the running client in remote log entries.
type ClientContext struct {
	Library   string `json:"library"`
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	UserAgent string `json:"userAgent"`
}

// NewClientContext returns the context of this process. userAgent is the
// effective User-Agent header; empty means the default.
func NewClientContext(userAgent string) ClientContext {
	if userAgent == "" {
		userAgent = UserAgent("")
	}
	return ClientContext{
		Library:   Product,
		Version:   GetShortVersion(),
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		UserAgent: userAgent,
	}
}
