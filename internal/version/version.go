// Package version exposes build metadata for the pipelinec CLI,
// injected at link time:
//
//	go build -ldflags "
//	  -X github.com/pipelineframework/corepipe/internal/version.Version=x.y.z
//	  -X github.com/pipelineframework/corepipe/internal/version.Commit=$(git rev-parse HEAD)
//	  -X github.com/pipelineframework/corepipe/internal/version.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)
//	"
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// AppName is the canonical binary name.
const AppName = "pipelinec"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func init() {
	if Commit != "unknown" {
		return
	}
	// Without ldflags, fall back to whatever the module build info
	// recorded (go install from a VCS checkout).
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			Commit = s.Value
		case "vcs.time":
			Date = s.Value
		}
	}
}

// Info is the machine-readable version report.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo assembles the full version report.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func shortCommit() string {
	if Commit == "unknown" || len(Commit) < 8 {
		return ""
	}
	return Commit[:8]
}

// String renders the one-line human form.
func String() string {
	info := GetInfo()
	if sc := shortCommit(); sc != "" {
		return fmt.Sprintf("%s version %s (commit %s, built %s, %s, %s)",
			AppName, info.Version, sc, info.Date, info.GoVersion, info.Platform)
	}
	return fmt.Sprintf("%s version %s (%s, %s)", AppName, info.Version, info.GoVersion, info.Platform)
}

// Short is the value Cobra prints for --version.
func Short() string {
	if sc := shortCommit(); sc != "" {
		return fmt.Sprintf("%s (%s)", Version, sc)
	}
	return Version
}

// UserAgent identifies this build on outbound HTTP requests.
func UserAgent() string {
	return AppName + "/" + Version
}
