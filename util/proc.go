//go:build unix

package util

import (
	"errors"

	"golang.org/x/sys/unix"
)

// IsProcessAlive reports whether a process with the given pid exists.
// Unreaped children count as alive.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	// signal 0 only checks for existence and permissions
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
