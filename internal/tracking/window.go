package tracking

import (
	"slices"

	"github.com/TinyKitten/TrainLCDWeb/internal/domain"
)

// WindowSize is the maximum number of stations shown around the rider.
const WindowSize = 8

// loopWrapCount is how many stations from the opposite end of the sequence
// are appended after the current station when a loop-line window crosses the
// array boundary.
const loopWrapCount = 6

// CurrentIndex locates the current station in the fetched sequence by group
// ID. Returns -1 when no current station is set or it is not in the list
// (catalog not loaded yet, or a different line's list).
func CurrentIndex(stations []domain.Station, current *domain.Station) int {
	if current == nil {
		return -1
	}
	return slices.IndexFunc(stations, func(s domain.Station) bool {
		return s.GroupID == current.GroupID
	})
}

// FormWindow produces the bounded display window around currentIndex.
//
// The window always starts at the current station. For a linear line the
// outbound window runs backward through already-passed stations (reversed, so
// the nearest passed station comes second) and the inbound window runs
// forward. A loop line has no real first or last station, so at the array
// boundary the window wraps to the opposite end instead of stopping.
//
// An index outside the sequence yields an empty window. Lookup failure is
// always reported as -1, so there is no separate length-equality case.
func FormWindow(stations []domain.Station, currentIndex int, dir domain.Direction, isLoop bool) []domain.Station {
	if currentIndex < 0 || currentIndex >= len(stations) {
		return nil
	}
	if isLoop {
		return formLoopWindow(stations, currentIndex, dir)
	}
	return formLinearWindow(stations, currentIndex, dir)
}

func formLinearWindow(stations []domain.Station, idx int, dir domain.Direction) []domain.Station {
	switch dir {
	case domain.DirectionOutbound:
		return backwardWindow(stations, idx)
	default:
		return forwardWindow(stations, idx)
	}
}

func formLoopWindow(stations []domain.Station, idx int, dir domain.Direction) []domain.Station {
	last := len(stations) - 1

	switch dir {
	case domain.DirectionInbound:
		if idx == 0 {
			// Continuing backward past the array start wraps to the tail,
			// nearest station first.
			window := make([]domain.Station, 0, 1+loopWrapCount)
			window = append(window, stations[0])
			for i := last; i >= 1 && len(window) < 1+loopWrapCount; i-- {
				window = append(window, stations[i])
			}
			return window
		}
		return backwardWindow(stations, idx)
	default:
		if idx == last {
			// Continuing forward past the array end wraps to the head.
			window := make([]domain.Station, 0, 1+loopWrapCount)
			window = append(window, stations[last])
			for i := 0; i < last && len(window) < 1+loopWrapCount; i++ {
				window = append(window, stations[i])
			}
			return window
		}
		return forwardWindow(stations, idx)
	}
}

// forwardWindow takes up to WindowSize stations from idx onward, current
// station first.
func forwardWindow(stations []domain.Station, idx int) []domain.Station {
	end := idx + WindowSize
	if end > len(stations) {
		end = len(stations)
	}
	window := make([]domain.Station, end-idx)
	copy(window, stations[idx:end])
	return window
}

// backwardWindow takes up to WindowSize stations ending at idx and reverses
// them, so the current station comes first and earlier stations follow in
// order of increasing distance behind it.
func backwardWindow(stations []domain.Station, idx int) []domain.Station {
	start := idx - WindowSize + 1
	if start < 0 {
		start = 0
	}
	window := make([]domain.Station, 0, idx-start+1)
	for i := idx; i >= start; i-- {
		window = append(window, stations[i])
	}
	return window
}
