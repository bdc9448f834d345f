package protocol

import "fmt"

// Token is a control message exchanged between the supervisor and its agents.
type Token uint8

const (
	// TokenInvalid is the zero value and never appears on the wire.
	TokenInvalid Token = iota

	// Ready is sent by an agent right after connecting.
	Ready

	// Monitor tells an agent to start monitoring its interface.
	Monitor

	// Monitoring acknowledges Monitor.
	Monitoring

	// LinkDown is an alert raised by an agent whose interface is down.
	LinkDown

	// SetLinkUp is the supervisor's remediation hint in reply to LinkDown.
	SetLinkUp

	// ShutDown asks an agent to exit gracefully.
	ShutDown

	// Done acknowledges ShutDown, or announces an agent's exit.
	Done
)

var tokenText = map[Token]string{
	Ready:      "ready",
	Monitor:    "monitor",
	Monitoring: "monitoring",
	LinkDown:   "link down",
	SetLinkUp:  "set link up",
	ShutDown:   "shut down",
	Done:       "done",
}

var textToken = func() map[string]Token {
	m := make(map[string]Token, len(tokenText))
	for t, s := range tokenText {
		m[s] = t
	}
	return m
}()

// Tokens returns every token that may appear on the wire.
func Tokens() []Token {
	return []Token{Ready, Monitor, Monitoring, LinkDown, SetLinkUp, ShutDown, Done}
}

func (t Token) String() string {
	if s, ok := tokenText[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", uint8(t))
}

// Valid reports whether t has a wire representation.
func (t Token) Valid() bool {
	_, ok := tokenText[t]
	return ok
}

// ParseToken maps a wire payload to its token.
func ParseToken(payload []byte) (Token, error) {
	if t, ok := textToken[string(payload)]; ok {
		return t, nil
	}
	return TokenInvalid, fmt.Errorf("%w: %q", ErrUnknownToken, payload)
}
