package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToken_WireText(t *testing.T) {
	tests := map[string]Token{
		"ready":       Ready,
		"monitor":     Monitor,
		"monitoring":  Monitoring,
		"link down":   LinkDown,
		"set link up": SetLinkUp,
		"shut down":   ShutDown,
		"done":        Done,
	}

	for text, expected := range tests {
		t.Run(text, func(t *testing.T) {
			token, err := ParseToken([]byte(text))
			require.NoError(t, err)
			assert.Equal(t, expected, token)
			assert.Equal(t, text, token.String())
		})
	}
}

func TestParseToken_Unknown(t *testing.T) {
	tests := []string{"", "Ready", "ready\x00", "link  down", "monitor "}

	for _, tt := range tests {
		t.Run(tt, func(t *testing.T) {
			token, err := ParseToken([]byte(tt))
			assert.ErrorIs(t, err, ErrUnknownToken)
			assert.Equal(t, TokenInvalid, token)
		})
	}
}

func TestToken_Valid(t *testing.T) {
	for _, token := range Tokens() {
		assert.True(t, token.Valid(), token.String())
	}

	assert.False(t, TokenInvalid.Valid())
	assert.False(t, Token(200).Valid())
	assert.Equal(t, "token(200)", Token(200).String())
}
