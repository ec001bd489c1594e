package geo

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/pkordes/eld-planner/internal/domain"
)

// mapsClient is the subset of *maps.Client the router calls.
type mapsClient interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GoogleRouter routes through the Google Directions API. Intermediate stops
// are sent as waypoints so the whole trip is one request.
type GoogleRouter struct {
	client mapsClient
}

// NewGoogleRouter builds a router for apiKey. opts are passed to
// maps.NewClient after the key.
func NewGoogleRouter(apiKey string, opts ...maps.ClientOption) (*GoogleRouter, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("geo.NewGoogleRouter: %w", err)
	}
	return &GoogleRouter{client: client}, nil
}

// Route implements Router.
func (g *GoogleRouter) Route(ctx context.Context, stops ...string) (Route, error) {
	if len(stops) < 2 {
		return Route{}, fmt.Errorf("geo.GoogleRouter.Route: need at least 2 stops, got %d", len(stops))
	}

	req := &maps.DirectionsRequest{
		Origin:      stops[0],
		Destination: stops[len(stops)-1],
		Waypoints:   stops[1 : len(stops)-1],
		Mode:        maps.TravelModeDriving,
		Units:       maps.UnitsImperial,
	}

	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		if isNotFound(err) {
			if locErr := g.unresolved(ctx, stops); locErr != nil {
				return Route{}, fmt.Errorf("geo.GoogleRouter.Route: %w", locErr)
			}
		}
		return Route{}, fmt.Errorf("geo.GoogleRouter.Route: %w: %w", domain.ErrRouteUnavailable, err)
	}
	if len(routes) == 0 {
		return Route{}, fmt.Errorf("geo.GoogleRouter.Route: %w: no route found", domain.ErrRouteUnavailable)
	}

	r, err := fromDirections(stops, routes[0])
	if err != nil {
		return Route{}, fmt.Errorf("geo.GoogleRouter.Route: %w", err)
	}
	return r, nil
}

// isNotFound reports a NOT_FOUND directions status, which Google returns
// when at least one stop could not be geocoded. The client only surfaces
// the status in the error text and drops the per-waypoint statuses.
func isNotFound(err error) bool {
	return strings.Contains(err.Error(), "NOT_FOUND")
}

// unresolved geocodes each stop and returns a LocationError for the first
// one without results. It returns nil when every stop resolves or the
// geocoder itself fails, leaving the directions error to stand.
func (g *GoogleRouter) unresolved(ctx context.Context, stops []string) *LocationError {
	for i, stop := range stops {
		results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: stop})
		if err != nil {
			return nil
		}
		if len(results) == 0 {
			return &LocationError{Index: i, Query: stop}
		}
	}
	return nil
}

// fromDirections converts a Google route into the provider-neutral shape.
// Path points are the start of every step plus the leg end, with miles taken
// from the step distances.
func fromDirections(stops []string, r maps.Route) (Route, error) {
	if len(r.Legs) != len(stops)-1 {
		return Route{}, fmt.Errorf("%w: got %d legs for %d stops",
			domain.ErrRouteUnavailable, len(r.Legs), len(stops))
	}

	out := Route{
		Places: make([]Place, 0, len(stops)),
		Legs:   make([]Leg, 0, len(r.Legs)),
	}
	for i, leg := range r.Legs {
		if leg == nil {
			return Route{}, fmt.Errorf("%w: leg %d missing", domain.ErrRouteUnavailable, i)
		}
		if i == 0 {
			out.Places = append(out.Places, Place{
				Query:   stops[0],
				Address: leg.StartAddress,
				Point:   latLng(leg.StartLocation),
			})
		}
		out.Places = append(out.Places, Place{
			Query:   stops[i+1],
			Address: leg.EndAddress,
			Point:   latLng(leg.EndLocation),
		})

		var (
			path []domain.Waypoint
			mile float64
		)
		for _, step := range leg.Steps {
			path = append(path, domain.Waypoint{LatLng: latLng(step.StartLocation), Mile: mile})
			mile += float64(step.Distance.Meters) / metersPerMile
		}
		miles := float64(leg.Distance.Meters) / metersPerMile
		path = append(path, domain.Waypoint{LatLng: latLng(leg.EndLocation), Mile: miles})

		out.Legs = append(out.Legs, Leg{
			Miles:    miles,
			Duration: leg.Duration,
			Path:     path,
		})
	}
	return out, nil
}

func latLng(p maps.LatLng) domain.LatLng {
	return domain.LatLng{Lat: p.Lat, Lng: p.Lng}
}
