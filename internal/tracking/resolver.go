package tracking

import "github.com/TinyKitten/TrainLCDWeb/internal/domain"

// DefaultNearbyStationKM is how close (in kilometers, exclusive) a nearest-
// station candidate must be before it can replace the current station while a
// line is selected.
const DefaultNearbyStationKM = 0.5

// Resolver decides whether a raw nearest-station candidate becomes the
// rider's current station. Stations of different lines can sit within meters
// of each other at interchanges, so while a line is selected a candidate is
// accepted only if it serves that line and is close enough to the rider.
type Resolver struct {
	maxDistanceKM float64
}

func NewResolver(maxDistanceKM float64) Resolver {
	return Resolver{maxDistanceKM: maxDistanceKM}
}

// ShouldAccept reports whether the candidate may replace the current station.
// A rejected candidate is simply dropped; this is a filter, not an error.
// selectedLineID of 0 means no line is selected, which accepts anything.
func (r Resolver) ShouldAccept(candidate domain.Station, selectedLineID int) bool {
	if selectedLineID == 0 {
		return true
	}
	return candidate.ServesLine(selectedLineID) && candidate.Distance < r.maxDistanceKM
}
