package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/hos"
	"github.com/pkordes/eld-planner/internal/repo"
)

// DefaultStartHour is the local hour the driver comes on duty when a
// generate request does not name one.
const DefaultStartHour = 8

// GenerateInput is a request to (re)generate a trip's daily logs.
type GenerateInput struct {
	OwnerID   uuid.UUID
	TripID    uuid.UUID
	StartDate time.Time // only the calendar date is used
	StartHour *int
}

// LogService generates and reads daily log entries.
type LogService struct {
	trips     repo.TripRepo
	logs      repo.LogRepo
	segmenter *hos.Segmenter
	loc       *time.Location
	logger    *slog.Logger
}

// NewLogService constructs a LogService. loc decides where calendar days
// start and end; its offset at the trip start holds for the whole trip.
func NewLogService(trips repo.TripRepo, logs repo.LogRepo, segmenter *hos.Segmenter, loc *time.Location, logger *slog.Logger) *LogService {
	if loc == nil {
		loc = time.UTC
	}
	return &LogService{trips: trips, logs: logs, segmenter: segmenter, loc: loc, logger: logger}
}

// Generate simulates the trip from the requested start and replaces the
// stored logs with one entry per calendar day. The same input always yields
// the same entries, ids included.
func (s *LogService) Generate(ctx context.Context, in GenerateInput) ([]domain.LogEntry, error) {
	hour := DefaultStartHour
	if in.StartHour != nil {
		hour = *in.StartHour
	}
	verr := domain.NewValidationError()
	if in.StartDate.IsZero() {
		verr.Field("start_date", "is required")
	}
	if hour < 0 || hour > 23 {
		verr.Field("start_hour", "must be between 0 and 23")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	trip, err := s.trips.GetByID(ctx, in.OwnerID, in.TripID)
	if err != nil {
		return nil, fmt.Errorf("service.LogService.Generate: %w", err)
	}
	if trip.Immutable() {
		return nil, fmt.Errorf("service.LogService.Generate: %w", domain.ErrImmutable)
	}
	if trip.Route == nil {
		return nil, fmt.Errorf("service.LogService.Generate: trip %s has no route: %w", trip.ID, domain.ErrNotFound)
	}

	y, m, d := in.StartDate.Date()
	res, err := s.segmenter.Segment(hos.Plan{
		Start:          fixedOffset(time.Date(y, m, d, hour, 0, 0, 0, s.loc)),
		CycleUsed:      hoursToDuration(trip.CurrentCycleUsed),
		Current:        trip.CurrentLocation,
		Pickup:         trip.PickupLocation,
		Dropoff:        trip.DropoffLocation,
		MilesToPickup:  trip.Route.PickupMile,
		MilesToDropoff: max(trip.Route.TotalDistance-trip.Route.PickupMile, 0),
	})
	if err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) && errors.Is(err, domain.ErrLimitExceeded) {
			s.logger.ErrorContext(ctx, "hos limit exceeded during log generation",
				"trip_id", trip.ID, "error", err)
		}
		return nil, fmt.Errorf("service.LogService.Generate: %w", err)
	}

	entries := hos.BuildLogs(trip.ID, res.Segments, hos.LogMeta{
		DriverName:     trip.DriverName,
		CarrierName:    trip.CarrierName,
		VehicleNumbers: trip.VehicleNumbers,
	})

	saved, err := s.logs.Replace(ctx, in.OwnerID, trip.ID, entries)
	if err != nil {
		return nil, fmt.Errorf("service.LogService.Generate: %w", err)
	}

	s.logger.InfoContext(ctx, "logs generated",
		"trip_id", trip.ID,
		"days", len(saved),
		"miles", res.Miles,
		"elapsed_hours", res.Elapsed().Hours(),
	)
	return saved, nil
}

// fixedOffset pins t to the UTC offset its zone has at t. Days split in the
// result are always 24 hours, so a DST change mid-trip cannot produce a 23
// or 25 hour log.
func fixedOffset(t time.Time) time.Time {
	name, offset := t.Zone()
	return t.In(time.FixedZone(name, offset))
}

// List returns the trip's logs ordered by date. It fails with ErrNotFound
// when the trip does not belong to the owner.
func (s *LogService) List(ctx context.Context, ownerID, tripID uuid.UUID) ([]domain.LogEntry, error) {
	if _, err := s.trips.GetByID(ctx, ownerID, tripID); err != nil {
		return nil, fmt.Errorf("service.LogService.List: %w", err)
	}
	logs, err := s.logs.ListByTrip(ctx, ownerID, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.LogService.List: %w", err)
	}
	return logs, nil
}

// Get returns one log entry.
func (s *LogService) Get(ctx context.Context, ownerID, id uuid.UUID) (domain.LogEntry, error) {
	l, err := s.logs.GetByID(ctx, ownerID, id)
	if err != nil {
		return domain.LogEntry{}, fmt.Errorf("service.LogService.Get: %w", err)
	}
	return l, nil
}
