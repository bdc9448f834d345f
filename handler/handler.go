package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/pratham-garg-456/Network-Monitor/internal/supervisor"
)

type StatusHandlerParams struct {
	fx.In

	Status supervisor.StatusProvider
	Log    *zap.Logger
}

func NewStatusHandler(params StatusHandlerParams) *StatusHandler {
	return &StatusHandler{
		status: params.Status,
		log:    params.Log,
	}
}

// StatusHandler serves the supervisor status as json.
type StatusHandler struct {
	status supervisor.StatusProvider
	log    *zap.Logger
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		log.Debug("method not allowed")
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := json.Marshal(h.status.Status())
	if err != nil {
		log.Error("failed to marshal status", zap.Error(err))
		http.Error(w, "failed to marshal status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(body); err != nil {
		log.Debug("failed to write response", zap.Error(err))
	}
}

// HealthHandler reports that the process is serving requests.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
