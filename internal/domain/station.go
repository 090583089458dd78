package domain

import "time"

// Coordinates is a single raw position fix from the rider's device.
// Accuracy is the reported horizontal error in meters; devices that do not
// report one leave it nil.
type Coordinates struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// Line identifies a transit line and its display color.
type Line struct {
	ID    int    `json:"id"`
	Color string `json:"color"`
}

// Station is one stop on a line as returned by the station catalog.
// Distance is the catalog-computed distance in kilometers from the queried
// point; it is never recomputed locally. GroupID is the stable identity used
// for index lookup, since array position changes whenever the catalog is
// refetched.
type Station struct {
	GroupID   int     `json:"groupId"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Lines     []Line  `json:"lines"`
	Distance  float64 `json:"distance"`
}

// ServesLine reports whether the station is a stop on the given line.
func (s Station) ServesLine(lineID int) bool {
	for _, l := range s.Lines {
		if l.ID == lineID {
			return true
		}
	}
	return false
}

// Direction is the rider's chosen travel direction relative to the line's
// canonical station order.
type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

// HeaderContent selects which of the two header labels the display shows.
type HeaderContent string

const (
	HeaderCurrentStation HeaderContent = "CURRENT_STATION"
	HeaderNextStop       HeaderContent = "NEXT_STOP"
)

// ProximityLabel classifies the upcoming station relative to the rider.
type ProximityLabel string

const (
	LabelApproaching ProximityLabel = "APPROACHING"
	LabelNext        ProximityLabel = "NEXT"
)

// TrackingUpdate is a read-only snapshot of a tracking session, pushed to
// display clients whenever session state changes.
type TrackingUpdate struct {
	SessionID      string         `json:"sessionId"`
	SelectedLineID int            `json:"selectedLineId,omitempty"`
	Direction      Direction      `json:"direction,omitempty"`
	CurrentStation *Station       `json:"currentStation,omitempty"`
	Window         []Station      `json:"window"`
	Proximity      ProximityLabel `json:"proximity,omitempty"`
	BadAccuracy    bool           `json:"badAccuracy"`
	Header         HeaderContent  `json:"header"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
