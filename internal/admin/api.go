package admin

import (
	"context"

	"github.com/pratham-garg-456/Network-Monitor/internal/supervisor"
)

// API is the receiver of the admin rpc methods.
type API struct {
	status supervisor.StatusProvider
}

// Status returns the current supervisor status.
func (api *API) Status(context.Context) (supervisor.Status, error) {
	return api.status.Status(), nil
}
