package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/handler"
	"github.com/pkordes/eld-planner/internal/middleware"
	"github.com/pkordes/eld-planner/internal/service"
)

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	plan   func(ctx context.Context, in service.PlanInput) (domain.Trip, bool, error)
	get    func(ctx context.Context, ownerID, id uuid.UUID) (domain.Trip, error)
	list   func(ctx context.Context, ownerID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.Trip], error)
	update func(ctx context.Context, u domain.TripUpdate) (domain.Trip, error)
	delete func(ctx context.Context, ownerID, id uuid.UUID) error
}

func (m *mockTripServicer) Plan(ctx context.Context, in service.PlanInput) (domain.Trip, bool, error) {
	return m.plan(ctx, in)
}
func (m *mockTripServicer) Get(ctx context.Context, ownerID, id uuid.UUID) (domain.Trip, error) {
	return m.get(ctx, ownerID, id)
}
func (m *mockTripServicer) List(ctx context.Context, ownerID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.Trip], error) {
	return m.list(ctx, ownerID, p)
}
func (m *mockTripServicer) Update(ctx context.Context, u domain.TripUpdate) (domain.Trip, error) {
	return m.update(ctx, u)
}
func (m *mockTripServicer) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.delete(ctx, ownerID, id)
}

// mockLogServicer is a test double for handler.LogServicer.
type mockLogServicer struct {
	generate func(ctx context.Context, in service.GenerateInput) ([]domain.LogEntry, error)
	list     func(ctx context.Context, ownerID, tripID uuid.UUID) ([]domain.LogEntry, error)
	get      func(ctx context.Context, ownerID, id uuid.UUID) (domain.LogEntry, error)
}

func (m *mockLogServicer) Generate(ctx context.Context, in service.GenerateInput) ([]domain.LogEntry, error) {
	return m.generate(ctx, in)
}
func (m *mockLogServicer) List(ctx context.Context, ownerID, tripID uuid.UUID) ([]domain.LogEntry, error) {
	return m.list(ctx, ownerID, tripID)
}
func (m *mockLogServicer) Get(ctx context.Context, ownerID, id uuid.UUID) (domain.LogEntry, error) {
	return m.get(ctx, ownerID, id)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.TripServicer = (*mockTripServicer)(nil)
	_ handler.LogServicer  = (*mockLogServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

var testOwner = uuid.MustParse("7d4f6a0e-2b1c-4c3a-9f56-0e8a1b2c3d4e")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// asOwner stands in for the authenticator and marks every request as testOwner.
func asOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), testOwner)))
	})
}

// newHTTPHandler wires a Server with the given mocks into the real router,
// mirroring main.go apart from the authenticator.
func newHTTPHandler(trips handler.TripServicer, logs handler.LogServicer) http.Handler {
	srv := handler.NewServer(trips, logs, discardLogger())
	return srv.Routes(handler.RouteOptions{Authenticate: asOwner})
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// errorEnvelope mirrors the JSON error body.
type errorEnvelope struct {
	Error struct {
		Code      string            `json:"code"`
		Message   string            `json:"message"`
		Fields    map[string]string `json:"fields"`
		Retryable bool              `json:"retryable"`
	} `json:"error"`
}

func decodeError(t *testing.T, body io.Reader) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func tripFixture() domain.Trip {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	id := uuid.New()
	return domain.Trip{
		ID:                id,
		OwnerID:           testOwner,
		CurrentLocation:   "Chicago, IL",
		PickupLocation:    "Joliet, IL",
		DropoffLocation:   "Denver, CO",
		CurrentCycleUsed:  12,
		DriverName:        "Sam Rivera",
		CarrierName:       "Prairie Freight",
		VehicleNumbers:    "TRK-12 / TRL-40",
		EstimatedDistance: 1043.456,
		EstimatedDuration: 30.5,
		Status:            domain.TripPlanned,
		CreatedAt:         created,
		UpdatedAt:         created,
		Route: &domain.Route{
			ID:            uuid.New(),
			TripID:        id,
			TotalDistance: 1043.456,
			TotalDuration: 19 * time.Hour,
			PickupMile:    40,
			Waypoints: []domain.Waypoint{
				{LatLng: domain.LatLng{Lat: 41.88, Lng: -87.63}, Mile: 0, Label: "Chicago, IL, USA"},
				{LatLng: domain.LatLng{Lat: 39.74, Lng: -104.99}, Mile: 1043.456, Label: "Denver, CO, USA"},
			},
			RestStops: []domain.RouteStop{{
				Reason:        domain.ReasonDailyRest,
				Location:      "Mile 605 past Joliet, IL, USA",
				Position:      domain.LatLng{Lat: 41.0, Lng: -96.0},
				MileMarker:    605,
				ArrivalOffset: 12*time.Hour + 30*time.Minute,
				Duration:      10 * time.Hour,
			}},
			FuelStops: []domain.RouteStop{{
				Reason:        domain.ReasonFuel,
				Location:      "Mile 1000 past Joliet, IL, USA",
				MileMarker:    1000,
				ArrivalOffset: 29 * time.Hour,
				Duration:      30 * time.Minute,
			}},
			CreatedAt: created,
		},
	}
}

func logFixture(tripID uuid.UUID) domain.LogEntry {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }
	return domain.LogEntry{
		ID:                uuid.New(),
		TripID:            tripID,
		Date:              day,
		StartTime:         day,
		EndTime:           at(24),
		TotalMiles:        220,
		TotalHours:        24,
		DrivingHours:      4,
		OnDutyHours:       1,
		OffDutyHours:      19,
		DriverName:        "Sam Rivera",
		CarrierName:       "Prairie Freight",
		VehicleNumbers:    "TRK-12 / TRL-40",
		Remarks:           "Pickup",
		Segments: []domain.DutySegment{
			{Status: domain.OffDuty, Date: day, Start: at(0), End: at(8), Location: "Chicago, IL"},
			{Status: domain.Driving, Date: day, Start: at(8), End: at(12), Location: "Chicago, IL", MilesDriven: 220},
			{Status: domain.OnDutyNotDriving, Date: day, Start: at(12), End: at(13), Location: "Joliet, IL", Note: "Pickup"},
			{Status: domain.OffDuty, Date: day, Start: at(13), End: at(24), Location: "Joliet, IL"},
		},
	}
}
