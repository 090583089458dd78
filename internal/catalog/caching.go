package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/TinyKitten/TrainLCDWeb/internal/cache"
	"github.com/TinyKitten/TrainLCDWeb/internal/domain"
	"github.com/TinyKitten/TrainLCDWeb/internal/store"
)

// Fetcher is the raw catalog the caching layer sits in front of.
type Fetcher interface {
	NearestStation(ctx context.Context, lat, lon float64) (domain.Station, error)
	StationsByLine(ctx context.Context, lineID int) ([]domain.Station, error)
}

// CachingCatalog layers the in-process station store and an optional Redis
// cache over the catalog client. Line catalogs are static data, so every
// session sharing one server reads the same cached sequence. Nearest-station
// lookups depend on the rider's position and always pass through.
type CachingCatalog struct {
	fetcher Fetcher
	store   *store.StationStore
	redis   *cache.RedisCache
	ttl     time.Duration
	logger  *slog.Logger
}

func NewCachingCatalog(fetcher Fetcher, st *store.StationStore, redis *cache.RedisCache, ttl time.Duration, logger *slog.Logger) *CachingCatalog {
	return &CachingCatalog{
		fetcher: fetcher,
		store:   st,
		redis:   redis,
		ttl:     ttl,
		logger:  logger.With("component", "catalog"),
	}
}

func (c *CachingCatalog) NearestStation(ctx context.Context, lat, lon float64) (domain.Station, error) {
	return c.fetcher.NearestStation(ctx, lat, lon)
}

func (c *CachingCatalog) StationsByLine(ctx context.Context, lineID int) ([]domain.Station, error) {
	if stations, ok := c.store.Get(lineID); ok {
		return stations, nil
	}

	if c.redis != nil {
		var stations []domain.Station
		hit, err := c.redis.GetJSONCompressed(ctx, cache.KeyLineStations(lineID), &stations)
		if err != nil {
			c.logger.Warn("redis lookup failed, falling through", "line_id", lineID, "error", err)
		}
		if hit {
			c.store.Set(lineID, stations)
			return stations, nil
		}
	}

	stations, err := c.fetcher.StationsByLine(ctx, lineID)
	if err != nil {
		return nil, err
	}

	c.store.Set(lineID, stations)
	if c.redis != nil {
		if err := c.redis.SetJSONCompressed(ctx, cache.KeyLineStations(lineID), stations, c.ttl); err != nil {
			c.logger.Warn("redis store failed", "line_id", lineID, "error", err)
		}
	}
	return stations, nil
}
