package version

import (
	"os"
	"strings"
)

// Version is overridden at build time with -ldflags "-X ...version.Version=x.y.z".
var Version = ""

const Default = "1.0.0"

// Resolve returns the build-time version, else the first line of the file at
// path, else Default.
func Resolve(path string) string {
	if v := strings.TrimSpace(Version); v != "" {
		return v
	}

	if path != "" {
		if versionBytes, err := os.ReadFile(path); err == nil {
			if v := firstLine(string(versionBytes)); v != "" {
				return v
			}
		}
	}

	return Default
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
