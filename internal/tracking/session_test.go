package tracking

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TinyKitten/TrainLCDWeb/internal/domain"
)

type fakeCatalog struct {
	mu        sync.Mutex
	nearest   domain.Station
	lines     map[int][]domain.Station
	lineCalls chan int
	block     map[int]chan struct{}
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		lines:     make(map[int][]domain.Station),
		lineCalls: make(chan int, 16),
		block:     make(map[int]chan struct{}),
	}
}

func (f *fakeCatalog) NearestStation(ctx context.Context, lat, lon float64) (domain.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nearest, nil
}

func (f *fakeCatalog) StationsByLine(ctx context.Context, lineID int) ([]domain.Station, error) {
	f.mu.Lock()
	stations := f.lines[lineID]
	gate := f.block[lineID]
	f.mu.Unlock()

	select {
	case f.lineCalls <- lineID:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return stations, nil
}

func (f *fakeCatalog) setNearest(s domain.Station) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nearest = s
}

// stationsForLine builds a line's sequence where every station serves the
// line, with group IDs starting at base.
func stationsForLine(lineID, base, n int) []domain.Station {
	stations := make([]domain.Station, n)
	for i := range stations {
		stations[i] = domain.Station{
			GroupID: base + i,
			Name:    fmt.Sprintf("Line %d Station %d", lineID, i),
			Lines:   []domain.Line{{ID: lineID}},
		}
	}
	return stations
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(fc *fakeCatalog) *Session {
	topology := domain.NewLineTopology(domain.DefaultLoopLineIDs())
	// An hour-long rotation keeps ticker noise out of the assertions.
	return NewSession("test-session", fc, topology, Options{RotateInterval: time.Hour}, nil, testLogger())
}

func TestSessionEndToEnd(t *testing.T) {
	fc := newFakeCatalog()
	stations := stationsForLine(5, 100, 12)
	fc.lines[5] = stations

	nearest := stations[3]
	nearest.Distance = 0.1
	fc.setNearest(nearest)

	sess := newTestSession(fc)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	sess.SelectLine(5)
	sess.SelectBound(domain.DirectionOutbound, stations[0])
	sess.OnFix(domain.Coordinates{Latitude: 35.68, Longitude: 139.76})

	require.Eventually(t, func() bool {
		return len(sess.Snapshot().Window) == 4
	}, time.Second, 5*time.Millisecond)

	snap := sess.Snapshot()
	require.NotNil(t, snap.CurrentStation)
	assert.Equal(t, 103, snap.CurrentStation.GroupID)
	assert.Equal(t, []int{103, 102, 101, 100}, groupIDs(snap.Window))
	assert.Equal(t, 5, snap.SelectedLineID)
	assert.Equal(t, domain.DirectionOutbound, snap.Direction)
	assert.Equal(t, domain.HeaderCurrentStation, snap.Header)
}

func TestSessionStaleStationListIsDropped(t *testing.T) {
	fc := newFakeCatalog()
	sess := newTestSession(fc)

	sess.selectedLineID = 2

	sess.handleStations(stationsResult{lineID: 1, stations: makeStations(5)})
	assert.Empty(t, sess.fetchedStations, "a fetch for a superseded line must not apply")

	sess.handleStations(stationsResult{lineID: 2, stations: makeStations(5)})
	assert.Len(t, sess.fetchedStations, 5)
}

func TestSessionNewSelectionWinsOverSlowFetch(t *testing.T) {
	fc := newFakeCatalog()
	fc.lines[1] = stationsForLine(1, 100, 6)
	fc.lines[2] = stationsForLine(2, 900, 6)
	gate := make(chan struct{})
	fc.block[1] = gate

	sess := newTestSession(fc)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	sess.SelectLine(1)
	select {
	case <-fc.lineCalls:
	case <-time.After(time.Second):
		t.Fatal("line 1 fetch never started")
	}

	sess.SelectLine(2)
	require.Eventually(t, func() bool {
		sess.mu.RLock()
		defer sess.mu.RUnlock()
		return len(sess.fetchedStations) == 6 && sess.fetchedStations[0].GroupID == 900
	}, time.Second, 5*time.Millisecond)

	close(gate)
	time.Sleep(50 * time.Millisecond)

	sess.mu.RLock()
	defer sess.mu.RUnlock()
	assert.Equal(t, 900, sess.fetchedStations[0].GroupID,
		"the released line 1 fetch must have no observable effect")
}

func TestSessionFiltersNearestCandidates(t *testing.T) {
	fc := newFakeCatalog()
	sess := newTestSession(fc)

	current := domain.Station{GroupID: 50, Lines: []domain.Line{{ID: 5}}}
	sess.selectedLineID = 5
	sess.currentStation = &current

	otherLine := domain.Station{GroupID: 60, Lines: []domain.Line{{ID: 7}}, Distance: 0.1}
	sess.handleNearest(&otherLine)
	assert.Equal(t, 50, sess.currentStation.GroupID)

	tooFar := domain.Station{GroupID: 61, Lines: []domain.Line{{ID: 5}}, Distance: 0.5}
	sess.handleNearest(&tooFar)
	assert.Equal(t, 50, sess.currentStation.GroupID)

	accepted := domain.Station{GroupID: 62, Lines: []domain.Line{{ID: 5}}, Distance: 0.3}
	sess.handleNearest(&accepted)
	assert.Equal(t, 62, sess.currentStation.GroupID)

	// A failed lookup delivers nil and changes nothing.
	sess.handleNearest(nil)
	assert.Equal(t, 62, sess.currentStation.GroupID)
}

func TestSessionHeaderRotation(t *testing.T) {
	fc := newFakeCatalog()
	sess := newTestSession(fc)

	// No bound selected yet: ticks are ignored.
	sess.rotateHeader()
	assert.Equal(t, domain.HeaderCurrentStation, sess.headerContent)

	stations := stationsForLine(5, 100, 12)
	bound := stations[11]
	sess.selectedLineID = 5
	sess.fetchedStations = stations
	sess.boundDirection = domain.DirectionInbound
	sess.boundStation = &bound

	// A single-station window never shows the next-stop label.
	single := stations[0]
	sess.currentStation = &single
	sess.boundDirection = domain.DirectionOutbound
	for i := 0; i < 5; i++ {
		sess.rotateHeader()
		assert.Equal(t, domain.HeaderCurrentStation, sess.headerContent)
	}

	// With upcoming stations the header alternates every tick.
	mid := stations[5]
	sess.currentStation = &mid
	sess.boundDirection = domain.DirectionInbound
	for i := 0; i < 3; i++ {
		sess.rotateHeader()
		assert.Equal(t, domain.HeaderNextStop, sess.headerContent)
		sess.rotateHeader()
		assert.Equal(t, domain.HeaderCurrentStation, sess.headerContent)
	}
}

func TestSessionDismissBadAccuracy(t *testing.T) {
	fc := newFakeCatalog()
	fc.setNearest(domain.Station{GroupID: 1, Distance: 0.1})

	sess := newTestSession(fc)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	badAccuracy := 5000.0
	sess.OnFix(domain.Coordinates{Latitude: 35.68, Longitude: 139.76, Accuracy: &badAccuracy})
	require.Eventually(t, func() bool {
		return sess.Snapshot().BadAccuracy
	}, time.Second, 5*time.Millisecond)

	sess.DismissBadAccuracy()
	require.Eventually(t, func() bool {
		return !sess.Snapshot().BadAccuracy
	}, time.Second, 5*time.Millisecond)

	// Dismissal is one-way: later bad fixes stay quiet.
	sess.OnFix(domain.Coordinates{Latitude: 35.69, Longitude: 139.77, Accuracy: &badAccuracy})
	time.Sleep(50 * time.Millisecond)
	assert.False(t, sess.Snapshot().BadAccuracy)
}

func TestSessionNotifiesOnChange(t *testing.T) {
	fc := newFakeCatalog()
	fc.lines[5] = stationsForLine(5, 100, 4)

	updates := make(chan domain.TrackingUpdate, 64)
	topology := domain.NewLineTopology(domain.DefaultLoopLineIDs())
	sess := NewSession("notify-test", fc, topology, Options{RotateInterval: time.Hour}, func(u domain.TrackingUpdate) {
		updates <- u
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	sess.SelectLine(5)

	deadline := time.After(time.Second)
	for {
		select {
		case u := <-updates:
			assert.Equal(t, "notify-test", u.SessionID)
			if u.SelectedLineID == 5 {
				return
			}
		case <-deadline:
			t.Fatal("no update carried the selected line")
		}
	}
}

func TestSessionStopReleasesLoop(t *testing.T) {
	fc := newFakeCatalog()
	sess := newTestSession(fc)

	ctx, cancel := context.WithCancel(context.Background())
	go sess.Run(ctx)
	cancel()
	time.Sleep(20 * time.Millisecond)

	// Commands after teardown are dropped, never block or panic.
	sess.OnFix(domain.Coordinates{Latitude: 35.68, Longitude: 139.76})
	sess.SelectLine(1)
	sess.DismissBadAccuracy()
	assert.Empty(t, sess.Snapshot().Window)
}
