package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/eld-planner/internal/domain"
)

// TripRepo defines the persistence operations for trips and their routes.
type TripRepo interface {
	// Create inserts trip and its route in one transaction. When the owner
	// already has a trip with the same idempotency key, nothing is written and
	// the existing trip is returned with created == false.
	Create(ctx context.Context, trip domain.Trip, route domain.Route) (got domain.Trip, created bool, err error)

	// GetByID returns the owner's trip with its route attached.
	// Returns domain.ErrNotFound if the trip does not exist or is not theirs.
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Trip, error)

	// GetByIdempotencyKey returns the owner's trip created with key, with its route.
	GetByIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string) (domain.Trip, error)

	// List returns one page of the owner's trips, newest first. Routes are
	// not attached.
	List(ctx context.Context, ownerID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.Trip], error)

	// Update overwrites the mutable fields of a trip and returns the result.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Delete removes a trip; its route and logs go with it.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by db.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `
	id, owner_id, current_location, pickup_location, dropoff_location,
	current_cycle_used, driver_name, carrier_name, vehicle_numbers,
	estimated_distance, estimated_duration, status, requires_multiple_logs,
	COALESCE(idempotency_key, ''), created_at, updated_at`

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip, route domain.Route) (domain.Trip, bool, error) {
	const q = `
		INSERT INTO trips (
			owner_id, current_location, pickup_location, dropoff_location,
			current_cycle_used, driver_name, carrier_name, vehicle_numbers,
			estimated_distance, estimated_duration, status, requires_multiple_logs,
			idempotency_key
		)
		VALUES (
			@owner_id, @current_location, @pickup_location, @dropoff_location,
			@current_cycle_used, @driver_name, @carrier_name, @vehicle_numbers,
			@estimated_distance, @estimated_duration, @status, @requires_multiple_logs,
			NULLIF(@idempotency_key, '')
		)
		ON CONFLICT (owner_id, idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING
		RETURNING ` + tripColumns

	status := trip.Status
	if status == "" {
		status = domain.TripPlanned
	}
	args := pgx.NamedArgs{
		"owner_id":               trip.OwnerID,
		"current_location":       trip.CurrentLocation,
		"pickup_location":        trip.PickupLocation,
		"dropoff_location":       trip.DropoffLocation,
		"current_cycle_used":     trip.CurrentCycleUsed,
		"driver_name":            trip.DriverName,
		"carrier_name":           trip.CarrierName,
		"vehicle_numbers":        trip.VehicleNumbers,
		"estimated_distance":     trip.EstimatedDistance,
		"estimated_duration":     trip.EstimatedDuration,
		"status":                 string(status),
		"requires_multiple_logs": trip.RequiresMultipleLogs,
		"idempotency_key":        trip.IdempotencyKey,
	}

	var (
		result  domain.Trip
		created bool
	)
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		t, err := scanTrip(tx.QueryRow(ctx, q, args))
		if errors.Is(err, domain.ErrNotFound) {
			// The insert was skipped by ON CONFLICT: replay of an earlier request.
			existing, err := getTrip(ctx, tx, `owner_id = @owner_id AND idempotency_key = @key`,
				pgx.NamedArgs{"owner_id": trip.OwnerID, "key": trip.IdempotencyKey})
			if err != nil {
				return err
			}
			result = existing
			return nil
		}
		if err != nil {
			return err
		}

		rt, err := insertRoute(ctx, tx, t.ID, route)
		if err != nil {
			return err
		}
		t.Route = &rt
		result, created = t, true
		return nil
	})
	if err != nil {
		return domain.Trip{}, false, fmt.Errorf("repo.TripRepo.Create: %w", mapErr(err))
	}
	return result, created, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Trip, error) {
	t, err := getTrip(ctx, r.db, `id = @id AND owner_id = @owner_id`,
		pgx.NamedArgs{"id": id, "owner_id": ownerID})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return t, nil
}

func (r *pgTripRepo) GetByIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string) (domain.Trip, error) {
	t, err := getTrip(ctx, r.db, `owner_id = @owner_id AND idempotency_key = @key`,
		pgx.NamedArgs{"owner_id": ownerID, "key": key})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByIdempotencyKey: %w", err)
	}
	return t, nil
}

// getTrip selects one trip matching where and attaches its route if any.
func getTrip(ctx context.Context, q db, where string, args pgx.NamedArgs) (domain.Trip, error) {
	t, err := scanTrip(q.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE `+where, args))
	if err != nil {
		return domain.Trip{}, mapErr(err)
	}

	rt, err := routeByTripID(ctx, q, t.ID)
	switch {
	case err == nil:
		t.Route = &rt
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Trip{}, err
	}
	return t, nil
}

func (r *pgTripRepo) List(ctx context.Context, ownerID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.Trip], error) {
	const countQ = `SELECT COUNT(*) FROM trips WHERE owner_id = @owner_id`
	const listQ = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE owner_id = @owner_id
		ORDER BY created_at DESC, id
		LIMIT @limit OFFSET @offset`

	page := domain.Page[domain.Trip]{Items: []domain.Trip{}, PaginationParams: p}

	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"owner_id": ownerID}).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("repo.TripRepo.List: count: %w", err)
	}

	rows, err := r.db.Query(ctx, listQ, pgx.NamedArgs{
		"owner_id": ownerID,
		"limit":    p.Limit,
		"offset":   p.Offset(),
	})
	if err != nil {
		return page, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return page, fmt.Errorf("repo.TripRepo.List: scan: %w", err)
		}
		page.Items = append(page.Items, t)
	}
	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("repo.TripRepo.List: rows: %w", err)
	}
	return page, nil
}

func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET status                 = @status,
		    driver_name            = @driver_name,
		    carrier_name           = @carrier_name,
		    vehicle_numbers        = @vehicle_numbers,
		    requires_multiple_logs = @requires_multiple_logs,
		    updated_at             = now()
		WHERE id = @id AND owner_id = @owner_id
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":                     trip.ID,
		"owner_id":               trip.OwnerID,
		"status":                 string(trip.Status),
		"driver_name":            trip.DriverName,
		"carrier_name":           trip.CarrierName,
		"vehicle_numbers":        trip.VehicleNumbers,
		"requires_multiple_logs": trip.RequiresMultipleLogs,
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", mapErr(err))
	}
	result.Route = trip.Route
	return result, nil
}

func (r *pgTripRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id AND owner_id = @owner_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanTrip maps a row selected with tripColumns into a domain.Trip.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t       domain.Trip
		id      pgtype.UUID
		ownerID pgtype.UUID
		status  string
	)
	err := s.Scan(
		&id, &ownerID, &t.CurrentLocation, &t.PickupLocation, &t.DropoffLocation,
		&t.CurrentCycleUsed, &t.DriverName, &t.CarrierName, &t.VehicleNumbers,
		&t.EstimatedDistance, &t.EstimatedDuration, &status, &t.RequiresMultipleLogs,
		&t.IdempotencyKey, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}
	t.ID = uuid.UUID(id.Bytes)
	t.OwnerID = uuid.UUID(ownerID.Bytes)
	t.Status = domain.TripStatus(status)
	return t, nil
}
