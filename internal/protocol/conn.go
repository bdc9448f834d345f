package protocol

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"
	"syscall"

	"github.com/google/uuid"
)

// Conn exchanges framed tokens over a stream connection. Writes are
// serialized; reads must come from a single goroutine.
type Conn struct {
	id     string
	conn   net.Conn
	reader *bufio.Reader

	writeLock sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an established stream connection.
func NewConn(conn net.Conn) *Conn {
	return &Conn{
		id:     uuid.NewString(),
		conn:   conn,
		reader: bufio.NewReaderSize(conn, maxHeaderSize+MaxMessageSize),
	}
}

// ID returns a random identifier, stable for the lifetime of the connection.
func (c *Conn) ID() string {
	return c.id
}

// WriteToken sends a single token.
func (c *Conn) WriteToken(t Token) error {
	if !t.Valid() {
		return ErrUnknownToken
	}

	return c.WriteMessage([]byte(t.String()))
}

// WriteMessage sends a raw payload as one frame.
func (c *Conn) WriteMessage(p []byte) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	return writeFrame(c.conn, p)
}

// ReadMessage blocks until a full frame has been received.
func (c *Conn) ReadMessage() ([]byte, error) {
	return readFrame(c.reader)
}

// ReadToken reads one frame and parses it. Payloads that do not name a
// token yield an error wrapping ErrUnknownToken; the stream stays usable.
func (c *Conn) ReadToken() (Token, error) {
	payload, err := c.ReadMessage()
	if err != nil {
		return TokenInvalid, err
	}

	return ParseToken(payload)
}

// CloseWrite shuts down the writing side, if the transport supports it.
func (c *Conn) CloseWrite() error {
	if cw, ok := c.conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}

// Close closes the connection. Only the first call has an effect.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// IsClosed reports whether err means the peer went away or the
// connection was closed locally.
func IsClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
