package domain

import (
	"time"

	"github.com/google/uuid"
)

// StopReason says why the segmenter inserted a stop.
type StopReason string

const (
	ReasonShortBreak StopReason = "short_break"
	ReasonDailyRest  StopReason = "daily_rest"
	ReasonCycleReset StopReason = "cycle_reset"
	ReasonFuel       StopReason = "fuel"
)

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Waypoint is a point along the route with its cumulative distance from the
// start of the trip.
type Waypoint struct {
	LatLng
	Mile  float64 `json:"mile"`
	Label string  `json:"label,omitempty"`
}

// RouteStop is a rest or fuel stop planned along the route.
// ArrivalOffset is measured from the start of the trip, so it does not depend
// on the calendar date the logs are later generated for.
type RouteStop struct {
	Reason        StopReason    `json:"reason"`
	Location      string        `json:"location"`
	Position      LatLng        `json:"position"`
	MileMarker    float64       `json:"mile_marker"`
	ArrivalOffset time.Duration `json:"arrival_offset"`
	Duration      time.Duration `json:"duration"`
}

// IsFuel reports whether the stop is a fuel stop rather than a rest.
func (s RouteStop) IsFuel() bool {
	return s.Reason == ReasonFuel
}

// Route is the computed driving route for a trip.
// It is derived entirely from the trip inputs and is replaced, never edited.
type Route struct {
	ID            uuid.UUID
	TripID        uuid.UUID
	TotalDistance float64       // miles
	TotalDuration time.Duration // driving time only
	PickupMile    float64       // distance from the current location to pickup
	Waypoints     []Waypoint
	RestStops     []RouteStop
	FuelStops     []RouteStop
	CreatedAt     time.Time
}
