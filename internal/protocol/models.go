package protocol

import "errors"

// MaxMessageSize is the largest payload accepted on the wire. Larger
// messages are rejected by both the writer and the reader; nothing is
// ever truncated.
const MaxMessageSize = 1024

// maxHeaderSize bounds the header block preceding a payload.
const maxHeaderSize = 128

var (
	ErrMessageTooLarge = errors.New("message exceeds maximum size")
	ErrMalformedHeader = errors.New("malformed message header")
	ErrUnknownToken    = errors.New("unknown token")
)
