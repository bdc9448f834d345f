package handler

import (
	"net/http"

	"github.com/pratham-garg-456/Network-Monitor/internal/server"
)

func NewStatusRoute(handler *StatusHandler) server.HttpHandlerResult {
	return server.AsHttpHandler("/status", handler)
}

func NewHealthRoute() server.HttpHandlerResult {
	return server.AsHttpHandler("/health", http.HandlerFunc(HealthHandler))
}
