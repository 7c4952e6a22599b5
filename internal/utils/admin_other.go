//go:build !windows

package utils

import "os"

func isElevated() bool {
	return os.Geteuid() == 0
}
