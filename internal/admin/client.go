package admin

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pratham-garg-456/Network-Monitor/internal/supervisor"
)

// Client queries a running supervisor.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to the admin socket at endpoint.
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	client, err := rpc.DialIPC(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	return &Client{rpc: client}, nil
}

// Status fetches the supervisor status.
func (c *Client) Status(ctx context.Context) (supervisor.Status, error) {
	var status supervisor.Status

	if err := c.rpc.CallContext(ctx, &status, Namespace+"_status"); err != nil {
		return supervisor.Status{}, fmt.Errorf("failed to get status: %w", err)
	}

	return status, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}
