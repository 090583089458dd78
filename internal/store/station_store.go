package store

import (
	"sync"
	"time"

	"github.com/TinyKitten/TrainLCDWeb/internal/domain"
)

// StationStore is the in-process cache of fetched line catalogs, shared by
// all sessions. Station sequences are stored in canonical line order and
// copied on read so callers can never mutate the cached slice.
type StationStore struct {
	mu        sync.RWMutex
	byLine    map[int][]domain.Station
	fetchedAt map[int]time.Time

	staleAfter time.Duration
}

func NewStationStore(staleAfter time.Duration) *StationStore {
	return &StationStore{
		byLine:     make(map[int][]domain.Station),
		fetchedAt:  make(map[int]time.Time),
		staleAfter: staleAfter,
	}
}

// Set replaces the cached station sequence for a line.
func (s *StationStore) Set(lineID int, stations []domain.Station) {
	stored := make([]domain.Station, len(stations))
	copy(stored, stations)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byLine[lineID] = stored
	s.fetchedAt[lineID] = time.Now()
}

// Get returns a copy of the cached sequence for a line. A sequence older
// than staleAfter reads as a miss so it gets refetched.
func (s *StationStore) Get(lineID int) ([]domain.Station, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stations, ok := s.byLine[lineID]
	if !ok {
		return nil, false
	}
	if s.staleAfter > 0 && time.Since(s.fetchedAt[lineID]) > s.staleAfter {
		return nil, false
	}

	result := make([]domain.Station, len(stations))
	copy(result, stations)
	return result, true
}

// Invalidate drops the cached sequence for a line.
func (s *StationStore) Invalidate(lineID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byLine, lineID)
	delete(s.fetchedAt, lineID)
}

// Count returns how many line catalogs are cached.
func (s *StationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byLine)
}

// Stats summarizes cache contents for the stats endpoint.
type Stats struct {
	Lines      int       `json:"lines"`
	Stations   int       `json:"stations"`
	LastUpdate time.Time `json:"lastUpdate"`
}

func (s *StationStore) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Lines: len(s.byLine)}
	for lineID, stations := range s.byLine {
		stats.Stations += len(stations)
		if at := s.fetchedAt[lineID]; at.After(stats.LastUpdate) {
			stats.LastUpdate = at
		}
	}
	return stats
}
