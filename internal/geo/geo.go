// Package geo resolves free-text locations and computes driving routes.
// Providers implement Router; the service only ever sees Route values.
package geo

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pkordes/eld-planner/internal/domain"
)

// metersPerMile converts provider distances to miles.
const metersPerMile = 1609.344

// Router computes a driving route visiting stops in order.
type Router interface {
	Route(ctx context.Context, stops ...string) (Route, error)
}

// Place is a resolved location.
type Place struct {
	Query   string        `json:"query"`
	Address string        `json:"address"`
	Point   domain.LatLng `json:"point"`
}

// Leg is the drive between two consecutive places.
type Leg struct {
	Miles    float64       `json:"miles"`
	Duration time.Duration `json:"duration"`
	// Path holds points along the leg with miles measured from the leg start.
	Path []domain.Waypoint `json:"path"`
}

// Route is a provider-neutral driving route. len(Legs) == len(Places)-1.
type Route struct {
	Places []Place `json:"places"`
	Legs   []Leg   `json:"legs"`
}

// Miles is the total route distance.
func (r Route) Miles() float64 {
	var total float64
	for _, l := range r.Legs {
		total += l.Miles
	}
	return total
}

// Duration is the provider's total driving time estimate.
func (r Route) Duration() time.Duration {
	var total time.Duration
	for _, l := range r.Legs {
		total += l.Duration
	}
	return total
}

// Waypoints flattens the legs into one ordered list whose Mile is measured
// from the start of the route. Places are labelled with their address.
func (r Route) Waypoints() []domain.Waypoint {
	var (
		out    []domain.Waypoint
		offset float64
	)
	for i, leg := range r.Legs {
		for j, p := range leg.Path {
			if i > 0 && j == 0 {
				continue // same point as the previous leg's end
			}
			p.Mile += offset
			out = append(out, p)
		}
		offset += leg.Miles
	}
	for i, place := range r.Places {
		label := place.Address
		if label == "" {
			label = place.Query
		}
		mile := 0.0
		for _, leg := range r.Legs[:min(i, len(r.Legs))] {
			mile += leg.Miles
		}
		out = labelNearest(out, mile, label)
	}
	return out
}

// labelNearest labels the unlabelled waypoint closest to mile.
func labelNearest(wps []domain.Waypoint, mile float64, label string) []domain.Waypoint {
	best := -1
	for i, w := range wps {
		if w.Label != "" {
			continue
		}
		if best < 0 || math.Abs(w.Mile-mile) < math.Abs(wps[best].Mile-mile) {
			best = i
		}
	}
	if best >= 0 {
		wps[best].Label = label
	}
	return wps
}

// PositionAt interpolates the coordinate mile miles into the route along
// waypoints ordered by Mile. Miles before the first or after the last
// waypoint clamp to the ends.
func PositionAt(wps []domain.Waypoint, mile float64) domain.LatLng {
	if len(wps) == 0 {
		return domain.LatLng{}
	}
	if mile <= wps[0].Mile {
		return wps[0].LatLng
	}
	for i := 1; i < len(wps); i++ {
		a, b := wps[i-1], wps[i]
		if mile > b.Mile {
			continue
		}
		span := b.Mile - a.Mile
		if span <= 0 {
			return b.LatLng
		}
		f := (mile - a.Mile) / span
		return domain.LatLng{
			Lat: a.Lat + (b.Lat-a.Lat)*f,
			Lng: a.Lng + (b.Lng-a.Lng)*f,
		}
	}
	return wps[len(wps)-1].LatLng
}

// NearestLabel returns the label of the closest labelled waypoint at or
// before mile, or "" when there is none.
func NearestLabel(wps []domain.Waypoint, mile float64) string {
	label := ""
	for _, w := range wps {
		if w.Mile > mile {
			break
		}
		if w.Label != "" {
			label = w.Label
		}
	}
	return label
}

// LocationError reports a stop the router could not resolve. Index is the
// position of the stop in the Route call.
type LocationError struct {
	Index int
	Query string
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("cannot resolve location %d %q", e.Index, e.Query)
}

// haversineMiles is the great-circle distance between two points.
func haversineMiles(a, b domain.LatLng) float64 {
	const earthRadiusMiles = 3958.8
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}
