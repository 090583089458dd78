package handler

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/TinyKitten/TrainLCDWeb/internal/hub"
	"github.com/TinyKitten/TrainLCDWeb/internal/store"
	"github.com/TinyKitten/TrainLCDWeb/internal/tracking"
)

type StatsHandler struct {
	manager   *tracking.Manager
	hub       *hub.Hub
	stations  *store.StationStore
	startTime time.Time
}

func NewStatsHandler(manager *tracking.Manager, h *hub.Hub, stations *store.StationStore) *StatsHandler {
	return &StatsHandler{
		manager:   manager,
		hub:       h,
		stations:  stations,
		startTime: time.Now(),
	}
}

type StatsResponse struct {
	Server   ServerStatsResponse   `json:"server"`
	Tracking TrackingStatsResponse `json:"tracking"`
	Catalog  store.Stats           `json:"catalog"`
	Go       GoStatsResponse       `json:"go"`
}

type ServerStatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds float64   `json:"uptimeSeconds"`
	StartTime     time.Time `json:"startTime"`
}

type TrackingStatsResponse struct {
	Sessions  int `json:"sessions"`
	WSClients int `json:"wsClients"`
}

type GoStatsResponse struct {
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heapAlloc"`
	NumGC      uint32 `json:"numGc"`
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	uptime := time.Since(h.startTime)

	resp := StatsResponse{
		Server: ServerStatsResponse{
			Uptime:        uptime.String(),
			UptimeSeconds: uptime.Seconds(),
			StartTime:     h.startTime,
		},
		Tracking: TrackingStatsResponse{
			Sessions:  h.manager.Count(),
			WSClients: h.hub.ClientCount(),
		},
		Catalog: h.stations.GetStats(),
		Go: GoStatsResponse{
			Goroutines: runtime.NumGoroutine(),
			HeapAlloc:  mem.HeapAlloc,
			NumGC:      mem.NumGC,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
