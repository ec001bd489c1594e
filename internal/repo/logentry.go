package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/eld-planner/internal/domain"
)

// LogRepo defines the persistence operations for daily log entries.
type LogRepo interface {
	// Replace deletes the trip's log entries and inserts logs in their place,
	// then records requires_multiple_logs on the trip, all in one transaction.
	// The trip row is locked with NOWAIT: a concurrent Replace for the same
	// trip fails with domain.ErrConflict instead of queueing. A completed trip
	// fails with domain.ErrImmutable.
	Replace(ctx context.Context, ownerID, tripID uuid.UUID, logs []domain.LogEntry) ([]domain.LogEntry, error)

	// ListByTrip returns the trip's log entries ordered by date.
	ListByTrip(ctx context.Context, ownerID, tripID uuid.UUID) ([]domain.LogEntry, error)

	// GetByID returns one log entry belonging to one of the owner's trips.
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.LogEntry, error)
}

type pgLogRepo struct {
	db db
}

// NewLogRepo constructs a LogRepo backed by db.
func NewLogRepo(db db) LogRepo {
	return &pgLogRepo{db: db}
}

const logColumns = `
	l.id, l.trip_id, l.date, l.start_time, l.end_time, l.total_miles, l.total_hours,
	l.driving_hours, l.on_duty_hours, l.off_duty_hours, l.sleeper_berth_hours,
	l.driver_name, l.carrier_name, l.vehicle_numbers, l.remarks, l.segments, l.created_at`

func (r *pgLogRepo) Replace(ctx context.Context, ownerID, tripID uuid.UUID, logs []domain.LogEntry) ([]domain.LogEntry, error) {
	const lockQ = `
		SELECT status FROM trips
		WHERE id = @id AND owner_id = @owner_id
		FOR UPDATE NOWAIT`
	const deleteQ = `DELETE FROM log_entries WHERE trip_id = @trip_id`
	const insertQ = `
		INSERT INTO log_entries AS l (
			id, trip_id, date, start_time, end_time, total_miles, total_hours,
			driving_hours, on_duty_hours, off_duty_hours, sleeper_berth_hours,
			driver_name, carrier_name, vehicle_numbers, remarks, segments
		)
		VALUES (
			@id, @trip_id, @date, @start_time, @end_time, @total_miles, @total_hours,
			@driving_hours, @on_duty_hours, @off_duty_hours, @sleeper_berth_hours,
			@driver_name, @carrier_name, @vehicle_numbers, @remarks, @segments
		)
		RETURNING ` + logColumns
	const flagQ = `
		UPDATE trips
		SET requires_multiple_logs = @multi, updated_at = now()
		WHERE id = @id`

	var out []domain.LogEntry
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var status string
		if err := tx.QueryRow(ctx, lockQ, pgx.NamedArgs{"id": tripID, "owner_id": ownerID}).Scan(&status); err != nil {
			return mapErr(err)
		}
		if domain.TripStatus(status) == domain.TripCompleted {
			return domain.ErrImmutable
		}

		if _, err := tx.Exec(ctx, deleteQ, pgx.NamedArgs{"trip_id": tripID}); err != nil {
			return fmt.Errorf("delete: %w", err)
		}

		out = make([]domain.LogEntry, 0, len(logs))
		for _, l := range logs {
			got, err := scanLog(tx.QueryRow(ctx, insertQ, pgx.NamedArgs{
				"id":                  l.ID,
				"trip_id":             tripID,
				"date":                l.Date,
				"start_time":          l.StartTime,
				"end_time":            l.EndTime,
				"total_miles":         l.TotalMiles,
				"total_hours":         l.TotalHours,
				"driving_hours":       l.DrivingHours,
				"on_duty_hours":       l.OnDutyHours,
				"off_duty_hours":      l.OffDutyHours,
				"sleeper_berth_hours": l.SleeperBerthHours,
				"driver_name":         l.DriverName,
				"carrier_name":        l.CarrierName,
				"vehicle_numbers":     l.VehicleNumbers,
				"remarks":             l.Remarks,
				"segments":            nonNil(l.Segments),
			}))
			if err != nil {
				return fmt.Errorf("insert %s: %w", l.DateString(), mapErr(err))
			}
			got.Segments = l.Segments
			out = append(out, got)
		}

		_, err := tx.Exec(ctx, flagQ, pgx.NamedArgs{"id": tripID, "multi": len(logs) > 1})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("repo.LogRepo.Replace: %w", err)
	}
	return out, nil
}

func (r *pgLogRepo) ListByTrip(ctx context.Context, ownerID, tripID uuid.UUID) ([]domain.LogEntry, error) {
	const q = `
		SELECT ` + logColumns + `
		FROM log_entries l
		JOIN trips t ON t.id = l.trip_id
		WHERE l.trip_id = @trip_id AND t.owner_id = @owner_id
		ORDER BY l.date`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID, "owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("repo.LogRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	logs := []domain.LogEntry{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.LogRepo.ListByTrip: scan: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.LogRepo.ListByTrip: rows: %w", err)
	}
	return logs, nil
}

func (r *pgLogRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.LogEntry, error) {
	const q = `
		SELECT ` + logColumns + `
		FROM log_entries l
		JOIN trips t ON t.id = l.trip_id
		WHERE l.id = @id AND t.owner_id = @owner_id`

	l, err := scanLog(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID}))
	if err != nil {
		return domain.LogEntry{}, fmt.Errorf("repo.LogRepo.GetByID: %w", mapErr(err))
	}
	return l, nil
}

func scanLog(s scanner) (domain.LogEntry, error) {
	var (
		l      domain.LogEntry
		id     pgtype.UUID
		tripID pgtype.UUID
		date   pgtype.Date
	)
	err := s.Scan(
		&id, &tripID, &date, &l.StartTime, &l.EndTime, &l.TotalMiles, &l.TotalHours,
		&l.DrivingHours, &l.OnDutyHours, &l.OffDutyHours, &l.SleeperBerthHours,
		&l.DriverName, &l.CarrierName, &l.VehicleNumbers, &l.Remarks, &l.Segments, &l.CreatedAt,
	)
	if err != nil {
		return domain.LogEntry{}, err
	}
	l.ID = uuid.UUID(id.Bytes)
	l.TripID = uuid.UUID(tripID.Bytes)
	l.Date = date.Time
	return l, nil
}
