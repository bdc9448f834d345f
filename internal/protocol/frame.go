package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const contentLengthHeader = "Content-Length"

// writeFrame writes p with an LSP-style header in a single Write call.
func writeFrame(w io.Writer, p []byte) error {
	if len(p) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(p))
	}

	header := fmt.Sprintf("%s: %d\r\n\r\n", contentLengthHeader, len(p))

	frame := make([]byte, 0, len(header)+len(p))
	frame = append(frame, header...)
	frame = append(frame, p...)

	_, err := w.Write(frame)
	return err
}

// readFrame reads one header block and its payload from r. The header
// block is never buffered beyond maxHeaderSize, newline or not.
func readFrame(r *bufio.Reader) ([]byte, error) {
	var headers strings.Builder
	for {
		chunk, err := r.ReadSlice('\n')
		headers.Write(chunk)

		if headers.Len() > maxHeaderSize {
			return nil, fmt.Errorf("%w: header too long", ErrMalformedHeader)
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		} else if err != nil {
			if err == io.EOF && headers.Len() > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		// detect the end of headers with double CRLF
		if strings.HasSuffix(headers.String(), "\r\n\r\n") {
			break
		}
	}

	contentLength, err := parseContentLength(headers.String())
	if err != nil {
		return nil, err
	}

	if contentLength > MaxMessageSize {
		// the payload is left unread, the stream cannot be resynchronized
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, contentLength)
	}

	payload := make([]byte, contentLength)
	n, err := io.ReadFull(r, payload)
	if err == io.ErrUnexpectedEOF || (err == io.EOF && contentLength > 0) {
		return nil, fmt.Errorf("unexpected EOF, expected %d bytes, got %d bytes: %w",
			contentLength, n, io.ErrUnexpectedEOF)
	}
	if err != nil {
		return nil, err
	}

	return payload, nil
}

func parseContentLength(headers string) (int, error) {
	for _, line := range strings.Split(strings.TrimSpace(headers), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
		}

		if !strings.EqualFold(strings.TrimSpace(name), contentLengthHeader) {
			continue
		}

		length, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || length < 0 {
			return 0, fmt.Errorf("%w: invalid %s value %q", ErrMalformedHeader, contentLengthHeader, value)
		}

		return length, nil
	}

	return 0, fmt.Errorf("%w: %s header not found", ErrMalformedHeader, contentLengthHeader)
}
