package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/TinyKitten/TrainLCDWeb/internal/tracking"
	"github.com/TinyKitten/TrainLCDWeb/pkg/geo"
)

type HTTPHandler struct {
	catalog tracking.Catalog
	manager *tracking.Manager
}

func NewHTTPHandler(catalog tracking.Catalog, manager *tracking.Manager) *HTTPHandler {
	return &HTTPHandler{catalog: catalog, manager: manager}
}

type StationsResponse struct {
	Stations   interface{} `json:"stations"`
	Count      int         `json:"count"`
	ServerTime time.Time   `json:"serverTime"`
}

// ListLineStations serves the full station sequence of a line in canonical
// order.
func (h *HTTPHandler) ListLineStations(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || lineID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid line id")
		return
	}

	stations, err := h.catalog.StationsByLine(r.Context(), lineID)
	if err != nil {
		respondError(w, http.StatusBadGateway, "station catalog unavailable")
		return
	}

	respondJSON(w, http.StatusOK, StationsResponse{
		Stations:   stations,
		Count:      len(stations),
		ServerTime: time.Now(),
	})
}

// NearestStation serves the station closest to the given point.
func (h *HTTPHandler) NearestStation(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil || !geo.IsValidLatLon(lat, lon) {
		respondError(w, http.StatusBadRequest, "invalid lat/lon parameters")
		return
	}

	station, err := h.catalog.NearestStation(r.Context(), lat, lon)
	if err != nil {
		respondError(w, http.StatusBadGateway, "station catalog unavailable")
		return
	}

	respondJSON(w, http.StatusOK, station)
}

// GetSession serves the latest snapshot of a live session: current station,
// window, proximity label, accuracy flag and header content.
func (h *HTTPHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing session id")
		return
	}

	session, ok := h.manager.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, session.Snapshot())
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
