package tracking

import "github.com/TinyKitten/TrainLCDWeb/internal/domain"

// DefaultApproachM is the distance in meters below which the upcoming
// station is labeled APPROACHING instead of NEXT.
const DefaultApproachM = 750.0

// DistanceFunc returns the geodesic distance in meters between two points.
type DistanceFunc func(aLat, aLon, bLat, bLon float64) float64

// Classifier labels the first ahead-of-travel station in the window relative
// to the rider's position. Distance computation is delegated, not done here.
type Classifier struct {
	approachM float64
	dist      DistanceFunc
}

func NewClassifier(approachM float64, dist DistanceFunc) Classifier {
	return Classifier{approachM: approachM, dist: dist}
}

// ClassifyNext labels window[1], the first station ahead of the rider. The
// second return is false when the window holds fewer than two stations and
// no upcoming station exists.
func (c Classifier) ClassifyNext(window []domain.Station, rider domain.Coordinates) (domain.ProximityLabel, bool) {
	if len(window) < 2 {
		return "", false
	}
	next := window[1]
	if c.dist(rider.Latitude, rider.Longitude, next.Latitude, next.Longitude) < c.approachM {
		return domain.LabelApproaching, true
	}
	return domain.LabelNext, true
}
