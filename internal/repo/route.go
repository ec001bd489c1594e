package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/eld-planner/internal/domain"
)

// Routes are written only as part of trip creation and read alongside the
// trip, so they have no repo interface of their own.

const routeColumns = `
	id, trip_id, total_distance, total_duration_seconds, pickup_mile,
	waypoints, rest_stops, fuel_stops, created_at`

func insertRoute(ctx context.Context, q db, tripID uuid.UUID, rt domain.Route) (domain.Route, error) {
	const stmt = `
		INSERT INTO routes (trip_id, total_distance, total_duration_seconds, pickup_mile, waypoints, rest_stops, fuel_stops)
		VALUES (@trip_id, @total_distance, @total_duration_seconds, @pickup_mile, @waypoints, @rest_stops, @fuel_stops)
		RETURNING ` + routeColumns

	args := pgx.NamedArgs{
		"trip_id":                tripID,
		"total_distance":         rt.TotalDistance,
		"total_duration_seconds": int64(rt.TotalDuration / time.Second),
		"pickup_mile":            rt.PickupMile,
		"waypoints":              nonNil(rt.Waypoints),
		"rest_stops":             nonNil(rt.RestStops),
		"fuel_stops":             nonNil(rt.FuelStops),
	}

	got, err := scanRoute(q.QueryRow(ctx, stmt, args))
	if err != nil {
		return domain.Route{}, fmt.Errorf("insert route: %w", err)
	}
	return got, nil
}

func routeByTripID(ctx context.Context, q db, tripID uuid.UUID) (domain.Route, error) {
	const stmt = `SELECT ` + routeColumns + ` FROM routes WHERE trip_id = @trip_id`

	got, err := scanRoute(q.QueryRow(ctx, stmt, pgx.NamedArgs{"trip_id": tripID}))
	if err != nil {
		return domain.Route{}, mapErr(err)
	}
	return got, nil
}

func scanRoute(s scanner) (domain.Route, error) {
	var (
		rt      domain.Route
		id      pgtype.UUID
		tripID  pgtype.UUID
		seconds int64
	)
	if err := s.Scan(&id, &tripID, &rt.TotalDistance, &seconds, &rt.PickupMile,
		&rt.Waypoints, &rt.RestStops, &rt.FuelStops, &rt.CreatedAt); err != nil {
		return domain.Route{}, err
	}
	rt.ID = uuid.UUID(id.Bytes)
	rt.TripID = uuid.UUID(tripID.Bytes)
	rt.TotalDuration = time.Duration(seconds) * time.Second
	return rt, nil
}

// nonNil keeps JSONB columns as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
