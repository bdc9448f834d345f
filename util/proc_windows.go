package util

import "os"

// IsProcessAlive reports whether a process with the given pid exists.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	p.Release()

	return true
}
