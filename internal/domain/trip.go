// Package domain contains the core data types for the HOS trip planner.
// It depends only on uuid and is imported by every other internal package
// (hos, repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxCycleHours is the 70-hour/8-day cycle cap that bounds current_cycle_used.
const MaxCycleHours = 70.0

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripPlanned    TripStatus = "planned"
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

var statusDisplay = map[TripStatus]string{
	TripPlanned:    "Planned",
	TripInProgress: "In Progress",
	TripCompleted:  "Completed",
	TripCancelled:  "Cancelled",
}

// transitions lists the statuses reachable from each status.
// Completed and cancelled are terminal.
var transitions = map[TripStatus][]TripStatus{
	TripPlanned:    {TripInProgress, TripCancelled},
	TripInProgress: {TripCompleted, TripCancelled},
}

// Valid reports whether s is one of the known statuses.
func (s TripStatus) Valid() bool {
	_, ok := statusDisplay[s]
	return ok
}

// Display returns the human-readable label shown next to a trip.
func (s TripStatus) Display() string {
	if d, ok := statusDisplay[s]; ok {
		return d
	}
	return string(s)
}

// CanTransition reports whether a trip in status s may move to next.
// Staying in the same status is always allowed.
func (s TripStatus) CanTransition(next TripStatus) bool {
	if s == next {
		return true
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Trip is the top-level aggregate: a planned haul from the driver's current
// location via a pickup to a dropoff. Route and logs belong to a trip.
type Trip struct {
	ID                   uuid.UUID
	OwnerID              uuid.UUID
	CurrentLocation      string
	PickupLocation       string
	DropoffLocation      string
	CurrentCycleUsed     float64 // hours already used in the 70h cycle
	DriverName           string
	CarrierName          string
	VehicleNumbers       string
	EstimatedDistance    float64 // miles
	EstimatedDuration    float64 // hours, start to finish including rests
	Status               TripStatus
	RequiresMultipleLogs bool
	IdempotencyKey       string
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// Route is populated by reads that join the route; nil otherwise.
	Route *Route
}

// Immutable reports whether the trip can no longer be changed.
func (t Trip) Immutable() bool {
	return t.Status == TripCompleted
}

// TripUpdate carries the optional fields of a PATCH. Nil means unchanged.
type TripUpdate struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Status         *TripStatus
	DriverName     *string
	CarrierName    *string
	VehicleNumbers *string
}

// Apply returns t with the non-nil fields of u written over it.
func (u TripUpdate) Apply(t Trip) Trip {
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.DriverName != nil {
		t.DriverName = *u.DriverName
	}
	if u.CarrierName != nil {
		t.CarrierName = *u.CarrierName
	}
	if u.VehicleNumbers != nil {
		t.VehicleNumbers = *u.VehicleNumbers
	}
	return t
}
