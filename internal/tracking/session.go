package tracking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/TinyKitten/TrainLCDWeb/internal/domain"
	"github.com/TinyKitten/TrainLCDWeb/pkg/geo"
)

// Catalog is the remote station catalog the session fetches from. A failed
// call degrades to "no update"; the session never propagates catalog errors.
type Catalog interface {
	NearestStation(ctx context.Context, lat, lon float64) (domain.Station, error)
	StationsByLine(ctx context.Context, lineID int) ([]domain.Station, error)
}

// UpdateFunc receives a snapshot after every session state change.
type UpdateFunc func(domain.TrackingUpdate)

// Options tunes the tracking thresholds. Zero values fall back to the
// defaults used by the reference network.
type Options struct {
	BadAccuracyM   float64
	ApproachM      float64
	NearbyKM       float64
	RotateInterval time.Duration
	FixBuffer      int
	Distance       DistanceFunc
}

func (o Options) withDefaults() Options {
	if o.BadAccuracyM == 0 {
		o.BadAccuracyM = DefaultBadAccuracyM
	}
	if o.ApproachM == 0 {
		o.ApproachM = DefaultApproachM
	}
	if o.NearbyKM == 0 {
		o.NearbyKM = DefaultNearbyStationKM
	}
	if o.RotateInterval == 0 {
		o.RotateInterval = 5 * time.Second
	}
	if o.FixBuffer == 0 {
		o.FixBuffer = 16
	}
	if o.Distance == nil {
		o.Distance = geo.DistanceMeters
	}
	return o
}

type boundSelection struct {
	direction domain.Direction
	station   domain.Station
}

type stationsResult struct {
	lineID   int
	stations []domain.Station
}

// Session tracks one rider. All state is owned by the session and mutated
// only inside Run, which processes fixes, commands, catalog results and
// header-rotation ticks one at a time. Snapshot derives read-only views from
// the latest state.
type Session struct {
	id         string
	catalog    Catalog
	topology   *domain.LineTopology
	resolver   Resolver
	classifier Classifier
	gate       *AccuracyGate
	rotate     time.Duration
	logger     *slog.Logger
	onUpdate   UpdateFunc

	mu              sync.RWMutex
	selectedLineID  int
	fetchedStations []domain.Station
	currentStation  *domain.Station
	boundDirection  domain.Direction
	boundStation    *domain.Station
	headerContent   domain.HeaderContent
	lastFix         *domain.Coordinates

	fixes       chan domain.Coordinates
	selectLine  chan int
	selectBound chan boundSelection
	dismiss     chan struct{}
	stationsCh  chan stationsResult
	nearestCh   chan *domain.Station

	// Owned by the Run goroutine.
	fetchCancel     context.CancelFunc
	nearestInFlight bool
}

func NewSession(id string, catalog Catalog, topology *domain.LineTopology, opts Options, onUpdate UpdateFunc, logger *slog.Logger) *Session {
	opts = opts.withDefaults()
	return &Session{
		id:         id,
		catalog:    catalog,
		topology:   topology,
		resolver:   NewResolver(opts.NearbyKM),
		classifier: NewClassifier(opts.ApproachM, opts.Distance),
		gate:       NewAccuracyGate(opts.BadAccuracyM),
		rotate:     opts.RotateInterval,
		logger:     logger.With("component", "session", "session_id", id),
		onUpdate:   onUpdate,

		headerContent: domain.HeaderCurrentStation,

		fixes:       make(chan domain.Coordinates, opts.FixBuffer),
		selectLine:  make(chan int, 4),
		selectBound: make(chan boundSelection, 4),
		dismiss:     make(chan struct{}, 1),
		stationsCh:  make(chan stationsResult, 4),
		nearestCh:   make(chan *domain.Station, 4),
	}
}

func (s *Session) ID() string {
	return s.id
}

// OnFix enqueues a raw position fix. Never blocks; a fix is dropped when the
// buffer is full, the stream will deliver another one shortly.
func (s *Session) OnFix(fix domain.Coordinates) {
	select {
	case s.fixes <- fix:
	default:
		s.logger.Debug("fix buffer full, dropping fix")
	}
}

// SelectLine chooses the line to track and triggers a catalog fetch of its
// station sequence.
func (s *Session) SelectLine(lineID int) {
	select {
	case s.selectLine <- lineID:
	default:
		s.logger.Warn("select line dropped, command buffer full")
	}
}

// SelectBound sets the travel direction and the terminus the rider is
// heading toward. Both are set together and persist until the next call.
func (s *Session) SelectBound(dir domain.Direction, station domain.Station) {
	select {
	case s.selectBound <- boundSelection{direction: dir, station: station}:
	default:
		s.logger.Warn("select bound dropped, command buffer full")
	}
}

// DismissBadAccuracy silences the accuracy warning for the rest of the
// session.
func (s *Session) DismissBadAccuracy() {
	select {
	case s.dismiss <- struct{}{}:
	default:
	}
}

// Run processes events until ctx is cancelled. Cancellation releases the
// rotation ticker and any in-flight catalog fetch together; a fetch that
// completes afterwards has no observable effect.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.rotate)
	defer ticker.Stop()
	defer s.cancelFetch()

	for {
		select {
		case <-ctx.Done():
			return
		case fix := <-s.fixes:
			s.handleFix(ctx, fix)
		case lineID := <-s.selectLine:
			s.handleSelectLine(ctx, lineID)
		case b := <-s.selectBound:
			s.handleSelectBound(b)
			// Restart rotation instead of stacking a second timer.
			ticker.Reset(s.rotate)
		case <-s.dismiss:
			s.handleDismiss()
		case res := <-s.stationsCh:
			s.handleStations(res)
		case candidate := <-s.nearestCh:
			s.handleNearest(candidate)
		case <-ticker.C:
			s.rotateHeader()
		}
	}
}

// Snapshot returns the latest derived views: the formed window, proximity
// label, accuracy flag and header content. Pure over current state.
func (s *Session) Snapshot() domain.TrackingUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := s.windowLocked()

	update := domain.TrackingUpdate{
		SessionID:      s.id,
		SelectedLineID: s.selectedLineID,
		Direction:      s.boundDirection,
		Window:         window,
		BadAccuracy:    s.gate.IsBad(s.lastFix),
		Header:         s.headerContent,
		UpdatedAt:      time.Now(),
	}
	if s.currentStation != nil {
		current := *s.currentStation
		update.CurrentStation = &current
	}
	if s.lastFix != nil {
		if label, ok := s.classifier.ClassifyNext(window, *s.lastFix); ok {
			update.Proximity = label
		}
	}
	return update
}

func (s *Session) windowLocked() []domain.Station {
	idx := CurrentIndex(s.fetchedStations, s.currentStation)
	isLoop := s.topology.IsLoopLine(s.selectedLineID)
	return FormWindow(s.fetchedStations, idx, s.boundDirection, isLoop)
}

func (s *Session) handleFix(ctx context.Context, fix domain.Coordinates) {
	s.mu.Lock()
	s.lastFix = &fix
	s.mu.Unlock()
	s.notify()

	if s.nearestInFlight {
		return
	}
	s.nearestInFlight = true

	go func() {
		station, err := s.catalog.NearestStation(ctx, fix.Latitude, fix.Longitude)
		if err != nil {
			s.logger.Debug("nearest station lookup failed", "error", err)
			s.deliverNearest(ctx, nil)
			return
		}
		s.deliverNearest(ctx, &station)
	}()
}

func (s *Session) deliverNearest(ctx context.Context, station *domain.Station) {
	select {
	case s.nearestCh <- station:
	case <-ctx.Done():
	}
}

func (s *Session) handleNearest(candidate *domain.Station) {
	s.nearestInFlight = false
	if candidate == nil {
		return
	}

	s.mu.Lock()
	if !s.resolver.ShouldAccept(*candidate, s.selectedLineID) {
		// Filtered out; the previous current station stays authoritative.
		s.mu.Unlock()
		return
	}
	s.currentStation = candidate
	s.mu.Unlock()
	s.notify()
}

func (s *Session) handleSelectLine(ctx context.Context, lineID int) {
	s.mu.Lock()
	s.selectedLineID = lineID
	s.fetchedStations = nil
	s.mu.Unlock()
	s.notify()

	s.cancelFetch()
	fetchCtx, cancel := context.WithCancel(ctx)
	s.fetchCancel = cancel

	go func() {
		stations, err := s.catalog.StationsByLine(fetchCtx, lineID)
		if err != nil {
			s.logger.Warn("station fetch failed", "line_id", lineID, "error", err)
			return
		}
		select {
		case s.stationsCh <- stationsResult{lineID: lineID, stations: stations}:
		case <-fetchCtx.Done():
		}
	}()
}

func (s *Session) handleStations(res stationsResult) {
	s.mu.Lock()
	if res.lineID != s.selectedLineID {
		// The fetch outlived a newer line selection.
		s.mu.Unlock()
		s.logger.Debug("discarding stale station list", "line_id", res.lineID)
		return
	}
	s.fetchedStations = res.stations
	s.mu.Unlock()

	s.logger.Info("station list loaded", "line_id", res.lineID, "stations", len(res.stations))
	s.notify()
}

func (s *Session) handleSelectBound(b boundSelection) {
	s.mu.Lock()
	s.boundDirection = b.direction
	station := b.station
	s.boundStation = &station
	s.headerContent = domain.HeaderCurrentStation
	s.mu.Unlock()
	s.notify()
}

func (s *Session) handleDismiss() {
	s.mu.Lock()
	s.gate.Dismiss()
	s.mu.Unlock()
	s.notify()
}

// rotateHeader alternates the header label. The next-stop label is only
// shown when the window actually contains an upcoming station; until a bound
// is selected the header does not rotate at all.
func (s *Session) rotateHeader() {
	s.mu.Lock()
	if s.boundStation == nil {
		s.mu.Unlock()
		return
	}

	changed := false
	switch s.headerContent {
	case domain.HeaderNextStop:
		s.headerContent = domain.HeaderCurrentStation
		changed = true
	default:
		if len(s.windowLocked()) > 1 {
			s.headerContent = domain.HeaderNextStop
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *Session) cancelFetch() {
	if s.fetchCancel != nil {
		s.fetchCancel()
		s.fetchCancel = nil
	}
}

func (s *Session) notify() {
	if s.onUpdate != nil {
		s.onUpdate(s.Snapshot())
	}
}
