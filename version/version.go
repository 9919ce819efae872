package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time using -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
)

// shortCommit is the commit prefix length used in version strings.
const shortCommit = 7

// Info describes a build.
type Info struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit,omitempty"`
	Branch    string    `json:"branch,omitempty"`
	GoVersion string    `json:"go_version"`
	BuiltAt   time.Time `json:"built_at,omitempty"`
	Dirty     bool      `json:"dirty,omitempty"`
}

// Release reports whether the build is a tagged, clean version.
func (i Info) Release() bool {
	return i.Version != "dev" && !i.Dirty && !strings.Contains(i.Version, "dirty")
}

// Get returns the build information, filling unstamped fields from the
// Go build settings.
func Get() Info {
	return resolve(readBuildInfo())
}

func readBuildInfo() *debug.BuildInfo {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return bi
}

func resolve(bi *debug.BuildInfo) Info {
	info := Info{
		Version: Version,
		Commit:  GitCommit,
		Branch:  GitBranch,
	}
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		info.BuiltAt = t
	}
	if bi == nil {
		return info
	}

	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.BuiltAt.IsZero() {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					info.BuiltAt = t
				}
			}
		}
	}
	if len(info.Commit) > shortCommit {
		info.Commit = info.Commit[:shortCommit]
	}
	return info
}

// Short returns version-commit, with -dirty for modified trees.
func (i Info) Short() string {
	s := i.Version
	if i.Commit != "" {
		s += "-" + i.Commit
	}
	if i.Dirty {
		s += "-dirty"
	}
	return s
}

// Full is Short plus a non-default branch and the build date.
func (i Info) Full() string {
	s := i.Short()
	if i.Branch != "" && i.Branch != "main" && i.Branch != "master" {
		s += " " + i.Branch
	}
	if !i.BuiltAt.IsZero() {
		s += fmt.Sprintf(" (built %s)", i.BuiltAt.UTC().Format(time.RFC3339))
	}
	return s
}

// Short returns the short version of the running binary.
func Short() string { return Get().Short() }

// Full returns the full version of the running binary.
func Full() string { return Get().Full() }

// UserAgent returns "speechkit/<short version>" for outbound requests.
func UserAgent() string { return "speechkit/" + Short() }
