//go:build !linux

package protocol

import "net"

// PeerPid returns 0, peer credentials are only read on linux.
func PeerPid(net.Conn) int {
	return 0
}
