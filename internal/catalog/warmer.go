package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Warmer pre-fetches the station sequences of configured lines at startup so
// the first rider on a popular line does not pay the upstream round trip.
type Warmer struct {
	catalog *CachingCatalog
	lineIDs []int
	logger  *slog.Logger

	ready   bool
	readyMu sync.RWMutex
}

func NewWarmer(catalog *CachingCatalog, lineIDs []int, logger *slog.Logger) *Warmer {
	return &Warmer{
		catalog: catalog,
		lineIDs: lineIDs,
		logger:  logger.With("component", "catalog_warmer"),
	}
}

// WarmAll fetches each configured line once. Individual failures are logged
// and skipped; warming is best effort.
func (w *Warmer) WarmAll(ctx context.Context) {
	start := time.Now()
	warmed := 0

	for _, lineID := range w.lineIDs {
		stations, err := w.catalog.StationsByLine(ctx, lineID)
		if err != nil {
			w.logger.Warn("failed to warm line", "line_id", lineID, "error", err)
			continue
		}
		w.logger.Debug("warmed line", "line_id", lineID, "stations", len(stations))
		warmed++
	}

	w.logger.Info("catalog warming completed",
		"lines_warmed", warmed,
		"total_lines", len(w.lineIDs),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	w.setReady(true)
}

func (w *Warmer) IsReady() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

func (w *Warmer) setReady(ready bool) {
	w.readyMu.Lock()
	defer w.readyMu.Unlock()
	w.ready = ready
}
