package geo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/eld-planner/internal/domain"
)

// DefaultDetourFactor scales great-circle distance to road distance.
const DefaultDetourFactor = 1.2

// CoordinateRouter routes between "lat,lng" inputs without a network call.
// Distances are haversine miles scaled by DetourFactor and durations assume
// SpeedMPH. It backs local development and tests when no maps key is set.
type CoordinateRouter struct {
	DetourFactor float64
	SpeedMPH     float64
}

// NewCoordinateRouter returns a router with the default detour factor.
func NewCoordinateRouter(speedMPH float64) *CoordinateRouter {
	return &CoordinateRouter{DetourFactor: DefaultDetourFactor, SpeedMPH: speedMPH}
}

// Route implements Router.
func (c *CoordinateRouter) Route(ctx context.Context, stops ...string) (Route, error) {
	if err := ctx.Err(); err != nil {
		return Route{}, fmt.Errorf("geo.CoordinateRouter.Route: %w: %w", domain.ErrRouteUnavailable, err)
	}
	if len(stops) < 2 {
		return Route{}, fmt.Errorf("geo.CoordinateRouter.Route: need at least 2 stops, got %d", len(stops))
	}

	out := Route{Places: make([]Place, 0, len(stops))}
	for i, s := range stops {
		p, err := ParseLatLng(s)
		if err != nil {
			return Route{}, fmt.Errorf("geo.CoordinateRouter.Route: %w", &LocationError{Index: i, Query: s})
		}
		out.Places = append(out.Places, Place{Query: s, Address: s, Point: p})
	}

	for i := 1; i < len(out.Places); i++ {
		a, b := out.Places[i-1].Point, out.Places[i].Point
		miles := haversineMiles(a, b) * c.DetourFactor
		var d time.Duration
		if c.SpeedMPH > 0 {
			d = time.Duration(miles / c.SpeedMPH * float64(time.Hour)).Round(time.Second)
		}
		out.Legs = append(out.Legs, Leg{
			Miles:    miles,
			Duration: d,
			Path: []domain.Waypoint{
				{LatLng: a},
				{LatLng: b, Mile: miles},
			},
		})
	}
	return out, nil
}

// ParseLatLng parses "lat,lng" with optional surrounding spaces.
func ParseLatLng(s string) (domain.LatLng, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return domain.LatLng{}, fmt.Errorf("geo.ParseLatLng: %q is not lat,lng", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return domain.LatLng{}, fmt.Errorf("geo.ParseLatLng: latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return domain.LatLng{}, fmt.Errorf("geo.ParseLatLng: longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return domain.LatLng{}, fmt.Errorf("geo.ParseLatLng: %q out of range", s)
	}
	return domain.LatLng{Lat: lat, Lng: lng}, nil
}
