package protocol_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/pratham-garg-456/Network-Monitor/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connPair(t *testing.T) (*protocol.Conn, *protocol.Conn) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "p.sock")

	listener, err := protocol.Listen(path)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	accepted := make(chan *protocol.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- protocol.NewConn(conn)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := protocol.Dial(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	server, ok := <-accepted
	require.True(t, ok, "accept failed")
	t.Cleanup(func() { server.Close() })

	return client, server
}

func TestConn_RoundTripsEveryToken(t *testing.T) {
	client, server := connPair(t)

	for _, token := range protocol.Tokens() {
		t.Run(token.String(), func(t *testing.T) {
			require.NoError(t, client.WriteToken(token))

			got, err := server.ReadToken()
			require.NoError(t, err)
			assert.Equal(t, token, got)
		})
	}
}

func TestConn_RoundTripsRawPayloadByteIdentical(t *testing.T) {
	client, server := connPair(t)

	for _, token := range protocol.Tokens() {
		require.NoError(t, server.WriteToken(token))

		payload, err := client.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, []byte(token.String()), payload)
	}
}

func TestConn_ReadToken_UnknownPayloadKeepsStreamUsable(t *testing.T) {
	client, server := connPair(t)

	require.NoError(t, client.WriteMessage([]byte("Ready\x00")))
	require.NoError(t, client.WriteToken(protocol.Ready))

	_, err := server.ReadToken()
	assert.ErrorIs(t, err, protocol.ErrUnknownToken)

	token, err := server.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, protocol.Ready, token)
}

func TestConn_WriteToken_RejectsInvalidToken(t *testing.T) {
	client, _ := connPair(t)

	err := client.WriteToken(protocol.TokenInvalid)
	assert.ErrorIs(t, err, protocol.ErrUnknownToken)
}

func TestConn_ReadAfterPeerClose_ReportsClosed(t *testing.T) {
	client, server := connPair(t)

	require.NoError(t, client.Close())

	_, err := server.ReadToken()
	assert.ErrorIs(t, err, io.EOF)
	assert.True(t, protocol.IsClosed(err))
}

func TestConn_CloseWrite_DeliversEOFButKeepsReading(t *testing.T) {
	client, server := connPair(t)

	require.NoError(t, server.WriteToken(protocol.ShutDown))
	require.NoError(t, server.CloseWrite())

	token, err := client.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, protocol.ShutDown, token)

	_, err = client.ReadToken()
	assert.ErrorIs(t, err, io.EOF)

	// the server can still receive the acknowledgement
	require.NoError(t, client.WriteToken(protocol.Done))

	token, err = server.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, protocol.Done, token)
}

func TestConn_Close_IsIdempotent(t *testing.T) {
	client, _ := connPair(t)

	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())
}

func TestConn_ID_IsUnique(t *testing.T) {
	client, server := connPair(t)

	assert.NotEmpty(t, client.ID())
	assert.NotEqual(t, client.ID(), server.ID())
}
