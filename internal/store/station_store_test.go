package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TinyKitten/TrainLCDWeb/internal/domain"
)

func sample(n int) []domain.Station {
	stations := make([]domain.Station, n)
	for i := range stations {
		stations[i] = domain.Station{GroupID: 100 + i}
	}
	return stations
}

func TestStationStoreSetGet(t *testing.T) {
	s := NewStationStore(time.Hour)

	_, ok := s.Get(5)
	assert.False(t, ok)

	s.Set(5, sample(12))
	got, ok := s.Get(5)
	require.True(t, ok)
	assert.Len(t, got, 12)
	assert.Equal(t, 1, s.Count())
}

func TestStationStoreCopiesOnReadAndWrite(t *testing.T) {
	s := NewStationStore(time.Hour)

	source := sample(3)
	s.Set(5, source)
	source[0].GroupID = 999

	got, _ := s.Get(5)
	assert.Equal(t, 100, got[0].GroupID, "writes to the caller's slice must not reach the cache")

	got[1].GroupID = 888
	again, _ := s.Get(5)
	assert.Equal(t, 101, again[1].GroupID, "writes to a returned slice must not reach the cache")
}

func TestStationStoreStaleEntriesMiss(t *testing.T) {
	s := NewStationStore(10 * time.Millisecond)

	s.Set(5, sample(3))
	_, ok := s.Get(5)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = s.Get(5)
	assert.False(t, ok)
}

func TestStationStoreInvalidate(t *testing.T) {
	s := NewStationStore(time.Hour)

	s.Set(5, sample(3))
	s.Invalidate(5)

	_, ok := s.Get(5)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Count())
}

func TestStationStoreStats(t *testing.T) {
	s := NewStationStore(time.Hour)

	s.Set(5, sample(12))
	s.Set(7, sample(30))

	stats := s.GetStats()
	assert.Equal(t, 2, stats.Lines)
	assert.Equal(t, 42, stats.Stations)
	assert.False(t, stats.LastUpdate.IsZero())
}
