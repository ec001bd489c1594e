package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/geo"
	"github.com/pkordes/eld-planner/internal/hos"
	"github.com/pkordes/eld-planner/internal/repo"
)

// mockTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field; set only the ones the test needs.
type mockTripRepo struct {
	create              func(ctx context.Context, trip domain.Trip, route domain.Route) (domain.Trip, bool, error)
	getByID             func(ctx context.Context, ownerID, id uuid.UUID) (domain.Trip, error)
	getByIdempotencyKey func(ctx context.Context, ownerID uuid.UUID, key string) (domain.Trip, error)
	list                func(ctx context.Context, ownerID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.Trip], error)
	update              func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	delete              func(ctx context.Context, ownerID, id uuid.UUID) error
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip, route domain.Route) (domain.Trip, bool, error) {
	return m.create(ctx, trip, route)
}
func (m *mockTripRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, ownerID, id)
}
func (m *mockTripRepo) GetByIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string) (domain.Trip, error) {
	return m.getByIdempotencyKey(ctx, ownerID, key)
}
func (m *mockTripRepo) List(ctx context.Context, ownerID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.Trip], error) {
	return m.list(ctx, ownerID, p)
}
func (m *mockTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.update(ctx, trip)
}
func (m *mockTripRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.delete(ctx, ownerID, id)
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

type mockLogRepo struct {
	replace    func(ctx context.Context, ownerID, tripID uuid.UUID, logs []domain.LogEntry) ([]domain.LogEntry, error)
	listByTrip func(ctx context.Context, ownerID, tripID uuid.UUID) ([]domain.LogEntry, error)
	getByID    func(ctx context.Context, ownerID, id uuid.UUID) (domain.LogEntry, error)
}

func (m *mockLogRepo) Replace(ctx context.Context, ownerID, tripID uuid.UUID, logs []domain.LogEntry) ([]domain.LogEntry, error) {
	return m.replace(ctx, ownerID, tripID, logs)
}
func (m *mockLogRepo) ListByTrip(ctx context.Context, ownerID, tripID uuid.UUID) ([]domain.LogEntry, error) {
	return m.listByTrip(ctx, ownerID, tripID)
}
func (m *mockLogRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.LogEntry, error) {
	return m.getByID(ctx, ownerID, id)
}

var _ repo.LogRepo = (*mockLogRepo)(nil)

type mockRouter struct {
	route func(ctx context.Context, stops ...string) (geo.Route, error)
	calls int
}

func (m *mockRouter) Route(ctx context.Context, stops ...string) (geo.Route, error) {
	m.calls++
	return m.route(ctx, stops...)
}

// ---- helpers ---------------------------------------------------------------

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSegmenter(t *testing.T) *hos.Segmenter {
	t.Helper()
	s, err := hos.NewSegmenter(hos.DefaultPolicy())
	require.NoError(t, err)
	return s
}

// fixedRoute returns a two-leg route of toPickup then toDropoff miles.
func fixedRoute(toPickup, toDropoff float64) geo.Route {
	a := domain.LatLng{Lat: 41.88, Lng: -87.63}
	b := domain.LatLng{Lat: 41.52, Lng: -88.08}
	c := domain.LatLng{Lat: 39.74, Lng: -104.99}
	return geo.Route{
		Places: []geo.Place{
			{Query: "Chicago, IL", Address: "Chicago, IL, USA", Point: a},
			{Query: "Joliet, IL", Address: "Joliet, IL, USA", Point: b},
			{Query: "Denver, CO", Address: "Denver, CO, USA", Point: c},
		},
		Legs: []geo.Leg{
			{Miles: toPickup, Path: []domain.Waypoint{{LatLng: a}, {LatLng: b, Mile: toPickup}}},
			{Miles: toDropoff, Path: []domain.Waypoint{{LatLng: b}, {LatLng: c, Mile: toDropoff}}},
		},
	}
}

func routerFor(r geo.Route) *mockRouter {
	return &mockRouter{route: func(context.Context, ...string) (geo.Route, error) { return r, nil }}
}

