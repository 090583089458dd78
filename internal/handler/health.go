package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/TinyKitten/TrainLCDWeb/internal/tracking"
)

// Readier is anything that can delay readiness, like the catalog warmer.
type Readier interface {
	IsReady() bool
}

type HealthHandler struct {
	readier Readier
	manager *tracking.Manager
}

func NewHealthHandler(readier Readier, manager *tracking.Manager) *HealthHandler {
	return &HealthHandler{readier: readier, manager: manager}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready        bool      `json:"ready"`
	SessionCount int       `json:"sessionCount"`
	ServerTime   time.Time `json:"serverTime"`
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ready := h.readier == nil || h.readier.IsReady()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ReadyResponse{
		Ready:        ready,
		SessionCount: h.manager.Count(),
		ServerTime:   time.Now(),
	})
}
