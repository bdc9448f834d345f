package protocol

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// PeerPid returns the pid of the process at the other end of a unix
// socket connection, or 0 if it cannot be determined.
func PeerPid(conn net.Conn) int {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return 0
	}

	raw, err := sc.SyscallConn()
	if err != nil {
		return 0
	}

	var (
		cred    *unix.Ucred
		credErr error
	)
	err = raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil || credErr != nil {
		return 0
	}

	return int(cred.Pid)
}
