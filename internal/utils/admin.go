package utils

import (
	"os"
	"strings"
)

// IsAdmin reports whether the process runs with administrative rights:
// an elevated token on Windows, uid 0 elsewhere. Several checks export
// state that is readable only when this holds.
func IsAdmin() bool {
	return isElevated()
}

// HostName returns the machine name, or "unknown" when it cannot be read.
func HostName() string {
	name, err := os.Hostname()
	if err != nil || strings.TrimSpace(name) == "" {
		return "unknown"
	}
	return name
}
