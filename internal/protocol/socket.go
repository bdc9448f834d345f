package protocol

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
)

// Listen binds a unix stream socket at path, removing a stale socket
// file first. The path is not removed when the listener is closed; call
// Unlink for that.
func Listen(path string) (*net.UnixListener, error) {
	if err := Unlink(path); err != nil {
		return nil, err
	}

	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", path, err)
	}

	listener.SetUnlinkOnClose(false)

	return listener, nil
}

// Unlink removes the socket file at path. A missing file is not an error.
func Unlink(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Dial connects to the unix stream socket at path.
func Dial(ctx context.Context, path string) (*Conn, error) {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", path, err)
	}

	return NewConn(conn), nil
}
