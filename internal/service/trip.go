// Package service contains the trip planning and log generation logic.
// Services validate input, call the router and the HOS engine, and
// orchestrate repo calls. No SQL lives here.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/geo"
	"github.com/pkordes/eld-planner/internal/hos"
	"github.com/pkordes/eld-planner/internal/repo"
)

// maxTextLen bounds free-text trip fields.
const maxTextLen = 255

// planningEpoch anchors the estimate run at DefaultStartHour UTC. Durations
// and stop offsets do not depend on the calendar; the hour only decides how
// many log days the estimate spans.
var planningEpoch = time.Date(2000, time.January, 3, DefaultStartHour, 0, 0, 0, time.UTC)

// locationFields maps router stop positions to request field names.
var locationFields = []string{"current_location", "pickup_location", "dropoff_location"}

// PlanInput is a request to plan a new trip.
type PlanInput struct {
	OwnerID          uuid.UUID
	CurrentLocation  string
	PickupLocation   string
	DropoffLocation  string
	CurrentCycleUsed float64
	DriverName       string
	CarrierName      string
	VehicleNumbers   string
	IdempotencyKey   string
}

// TripService plans trips and manages their lifecycle.
type TripService struct {
	trips     repo.TripRepo
	router    geo.Router
	segmenter *hos.Segmenter
	timeout   time.Duration
	logger    *slog.Logger
}

// NewTripService constructs a TripService. timeout bounds each router call.
func NewTripService(trips repo.TripRepo, router geo.Router, segmenter *hos.Segmenter, timeout time.Duration, logger *slog.Logger) *TripService {
	return &TripService{
		trips:     trips,
		router:    router,
		segmenter: segmenter,
		timeout:   timeout,
		logger:    logger,
	}
}

// Plan validates in, routes the trip, estimates the HOS schedule and stores
// the trip with its route. When in carries an idempotency key the owner has
// already used, the stored trip is returned with created == false and the
// router is not called.
func (s *TripService) Plan(ctx context.Context, in PlanInput) (domain.Trip, bool, error) {
	in = normalizePlan(in)
	if err := validatePlan(in); err != nil {
		return domain.Trip{}, false, err
	}

	if in.IdempotencyKey != "" {
		existing, err := s.trips.GetByIdempotencyKey(ctx, in.OwnerID, in.IdempotencyKey)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Trip{}, false, fmt.Errorf("service.TripService.Plan: %w", err)
		}
	}

	rt, err := s.route(ctx, in.CurrentLocation, in.PickupLocation, in.DropoffLocation)
	if err != nil {
		return domain.Trip{}, false, err
	}

	res, err := s.segmenter.Segment(hos.Plan{
		Start:          planningEpoch,
		CycleUsed:      hoursToDuration(in.CurrentCycleUsed),
		Current:        in.CurrentLocation,
		Pickup:         in.PickupLocation,
		Dropoff:        in.DropoffLocation,
		MilesToPickup:  rt.Legs[0].Miles,
		MilesToDropoff: rt.Legs[1].Miles,
	})
	if err != nil {
		return domain.Trip{}, false, s.segmentErr(ctx, "service.TripService.Plan", err)
	}

	trip := domain.Trip{
		OwnerID:              in.OwnerID,
		CurrentLocation:      in.CurrentLocation,
		PickupLocation:       in.PickupLocation,
		DropoffLocation:      in.DropoffLocation,
		CurrentCycleUsed:     in.CurrentCycleUsed,
		DriverName:           in.DriverName,
		CarrierName:          in.CarrierName,
		VehicleNumbers:       in.VehicleNumbers,
		EstimatedDistance:    res.Miles,
		EstimatedDuration:    res.Elapsed().Hours(),
		Status:               domain.TripPlanned,
		RequiresMultipleLogs: hos.RequiresMultipleLogs(hos.BuildLogs(uuid.Nil, res.Segments, hos.LogMeta{})),
		IdempotencyKey:       in.IdempotencyKey,
	}

	saved, created, err := s.trips.Create(ctx, trip, buildRoute(rt, res))
	if err != nil {
		return domain.Trip{}, false, fmt.Errorf("service.TripService.Plan: %w", err)
	}
	return saved, created, nil
}

// route calls the router under the configured timeout and classifies its
// failures: unresolvable stops become field errors, everything else is
// ErrRouteUnavailable.
func (s *TripService) route(ctx context.Context, stops ...string) (geo.Route, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rt, err := s.router.Route(ctx, stops...)
	if err != nil {
		var locErr *geo.LocationError
		if errors.As(err, &locErr) && locErr.Index < len(locationFields) {
			return geo.Route{}, domain.FieldError(locationFields[locErr.Index], "could not be resolved to a location")
		}
		s.logger.WarnContext(ctx, "route lookup failed", "error", err)
		if !errors.Is(err, domain.ErrRouteUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrRouteUnavailable, err)
		}
		return geo.Route{}, fmt.Errorf("service.TripService.Plan: %w", err)
	}
	if len(rt.Legs) != len(stops)-1 {
		return geo.Route{}, fmt.Errorf("service.TripService.Plan: %w: router returned %d legs",
			domain.ErrRouteUnavailable, len(rt.Legs))
	}
	return rt, nil
}

// segmentErr logs HOS engine contract violations, which mean a bug rather
// than bad input.
func (s *TripService) segmentErr(ctx context.Context, op string, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return err
	}
	if errors.Is(err, domain.ErrLimitExceeded) {
		s.logger.ErrorContext(ctx, "hos limit exceeded during segmentation", "op", op, "error", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Get returns one of the owner's trips with its route.
func (s *TripService) Get(ctx context.Context, ownerID, id uuid.UUID) (domain.Trip, error) {
	t, err := s.trips.GetByID(ctx, ownerID, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get: %w", err)
	}
	return t, nil
}

// List returns one page of the owner's trips, newest first.
func (s *TripService) List(ctx context.Context, ownerID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.Trip], error) {
	page, err := s.trips.List(ctx, ownerID, p)
	if err != nil {
		return domain.Page[domain.Trip]{}, fmt.Errorf("service.TripService.List: %w", err)
	}
	return page, nil
}

// Update applies a partial update. Completed trips reject every change with
// ErrImmutable; status changes must follow TripStatus.CanTransition.
func (s *TripService) Update(ctx context.Context, u domain.TripUpdate) (domain.Trip, error) {
	if err := validateUpdate(u); err != nil {
		return domain.Trip{}, err
	}

	current, err := s.trips.GetByID(ctx, u.OwnerID, u.ID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	if current.Immutable() {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", domain.ErrImmutable)
	}
	if u.Status != nil && !current.Status.CanTransition(*u.Status) {
		return domain.Trip{}, domain.FieldError("status",
			fmt.Sprintf("cannot change from %s to %s", current.Status, *u.Status))
	}

	updated, err := s.trips.Update(ctx, u.Apply(current))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return updated, nil
}

// Delete removes the trip together with its route and logs.
func (s *TripService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.trips.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

func normalizePlan(in PlanInput) PlanInput {
	in.CurrentLocation = strings.TrimSpace(in.CurrentLocation)
	in.PickupLocation = strings.TrimSpace(in.PickupLocation)
	in.DropoffLocation = strings.TrimSpace(in.DropoffLocation)
	in.DriverName = strings.TrimSpace(in.DriverName)
	in.CarrierName = strings.TrimSpace(in.CarrierName)
	in.VehicleNumbers = strings.TrimSpace(in.VehicleNumbers)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	return in
}

func validatePlan(in PlanInput) error {
	verr := domain.NewValidationError()
	for _, f := range []struct {
		name, value string
		required    bool
	}{
		{"current_location", in.CurrentLocation, true},
		{"pickup_location", in.PickupLocation, true},
		{"dropoff_location", in.DropoffLocation, true},
		{"driver_name", in.DriverName, false},
		{"carrier_name", in.CarrierName, false},
		{"vehicle_numbers", in.VehicleNumbers, false},
	} {
		checkText(verr, f.name, f.value, f.required)
	}
	if c := in.CurrentCycleUsed; math.IsNaN(c) || c < 0 || c > domain.MaxCycleHours {
		verr.Field("current_cycle_used", fmt.Sprintf("must be between 0 and %g", domain.MaxCycleHours))
	}
	if len(in.IdempotencyKey) > maxTextLen {
		verr.General(fmt.Sprintf("Idempotency-Key must be at most %d characters", maxTextLen))
	}
	return verr.OrNil()
}

func validateUpdate(u domain.TripUpdate) error {
	verr := domain.NewValidationError()
	if u.Status != nil && !u.Status.Valid() {
		verr.Field("status", "must be one of planned, in_progress, completed, cancelled")
	}
	for name, v := range map[string]*string{
		"driver_name":     u.DriverName,
		"carrier_name":    u.CarrierName,
		"vehicle_numbers": u.VehicleNumbers,
	} {
		if v != nil {
			checkText(verr, name, *v, false)
		}
	}
	return verr.OrNil()
}

func checkText(verr *domain.ValidationError, field, value string, required bool) {
	switch {
	case required && strings.TrimSpace(value) == "":
		verr.Field(field, "is required")
	case len(value) > maxTextLen:
		verr.Field(field, fmt.Sprintf("must be at most %d characters", maxTextLen))
	}
}

// buildRoute combines router geometry with the segmenter's stops.
func buildRoute(rt geo.Route, res hos.Result) domain.Route {
	wps := rt.Waypoints()
	out := domain.Route{
		TotalDistance: res.Miles,
		TotalDuration: res.DrivingTime,
		PickupMile:    rt.Legs[0].Miles,
		Waypoints:     wps,
		RestStops:     []domain.RouteStop{},
		FuelStops:     []domain.RouteStop{},
	}
	for _, stop := range res.Stops {
		stop.Position = geo.PositionAt(wps, stop.MileMarker)
		if label := geo.NearestLabel(wps, stop.MileMarker); label != "" {
			stop.Location = fmt.Sprintf("Mile %.0f past %s", stop.MileMarker-labelMile(wps, label), label)
		}
		if stop.IsFuel() {
			out.FuelStops = append(out.FuelStops, stop)
		} else {
			out.RestStops = append(out.RestStops, stop)
		}
	}
	return out
}

func labelMile(wps []domain.Waypoint, label string) float64 {
	for _, w := range wps {
		if w.Label == label {
			return w.Mile
		}
	}
	return 0
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(math.Round(h * float64(time.Hour)))
}
