package handler

import (
	"math"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/eld-planner/internal/domain"
)

// ---- requests --------------------------------------------------------------

type planTripRequest struct {
	CurrentLocation  string   `json:"current_location"`
	PickupLocation   string   `json:"pickup_location"`
	DropoffLocation  string   `json:"dropoff_location"`
	CurrentCycleUsed *float64 `json:"current_cycle_used"`
	DriverName       string   `json:"driver_name"`
	CarrierName      string   `json:"carrier_name"`
	VehicleNumbers   string   `json:"vehicle_numbers"`
}

type updateTripRequest struct {
	Status         *string `json:"status"`
	DriverName     *string `json:"driver_name"`
	CarrierName    *string `json:"carrier_name"`
	VehicleNumbers *string `json:"vehicle_numbers"`
}

type generateLogsRequest struct {
	StartDate *openapi_types.Date `json:"start_date"`
	StartHour *int                `json:"start_hour"`
}

// ---- responses -------------------------------------------------------------

type tripResponse struct {
	ID                   uuid.UUID      `json:"id"`
	CurrentLocation      string         `json:"current_location"`
	PickupLocation       string         `json:"pickup_location"`
	DropoffLocation      string         `json:"dropoff_location"`
	CurrentCycleUsed     float64        `json:"current_cycle_used"`
	DriverName           string         `json:"driver_name"`
	CarrierName          string         `json:"carrier_name"`
	VehicleNumbers       string         `json:"vehicle_numbers"`
	EstimatedDistance    float64        `json:"estimated_distance"`
	EstimatedDuration    float64        `json:"estimated_duration"`
	Status               string         `json:"status"`
	StatusDisplay        string         `json:"status_display"`
	RequiresMultipleLogs bool           `json:"requires_multiple_logs"`
	IdempotencyKey       string         `json:"idempotency_key,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	Route                *routeResponse `json:"route,omitempty"`
}

type routeResponse struct {
	ID            uuid.UUID         `json:"id"`
	TripID        uuid.UUID         `json:"trip_id"`
	TotalDistance float64           `json:"total_distance"`
	TotalDuration float64           `json:"total_duration"`
	Waypoints     []domain.Waypoint `json:"waypoints"`
	RestStops     []stopResponse    `json:"rest_stops"`
	FuelStops     []stopResponse    `json:"fuel_stops"`
	CreatedAt     time.Time         `json:"created_at"`
}

type stopResponse struct {
	Kind               string  `json:"kind"`
	Reason             string  `json:"reason"`
	Location           string  `json:"location"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	MileMarker         float64 `json:"mile_marker"`
	ArrivalOffsetHours float64 `json:"arrival_offset_hours"`
	DurationHours      float64 `json:"duration_hours"`
}

type logResponse struct {
	ID                uuid.UUID          `json:"id"`
	TripID            uuid.UUID          `json:"trip_id"`
	Date              openapi_types.Date `json:"date"`
	StartTime         time.Time          `json:"start_time"`
	EndTime           time.Time          `json:"end_time"`
	TotalMiles        float64            `json:"total_miles"`
	TotalHours        float64            `json:"total_hours"`
	DrivingHours      float64            `json:"driving_hours"`
	OnDutyHours       float64            `json:"on_duty_hours"`
	OffDutyHours      float64            `json:"off_duty_hours"`
	SleeperBerthHours float64            `json:"sleeper_berth_hours"`
	DriverName        string             `json:"driver_name"`
	CarrierName       string             `json:"carrier_name"`
	VehicleNumbers    string             `json:"vehicle_numbers"`
	Remarks           string             `json:"remarks"`
	Segments          []segmentResponse  `json:"segments"`
}

type segmentResponse struct {
	Status      string             `json:"status"`
	Date        openapi_types.Date `json:"date"`
	StartTime   time.Time          `json:"start_time"`
	EndTime     time.Time          `json:"end_time"`
	Location    string             `json:"location"`
	MilesDriven float64            `json:"miles_driven"`
	Note        string             `json:"note,omitempty"`
}

type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type tripListResponse struct {
	Data       []tripResponse `json:"data"`
	Pagination pagination     `json:"pagination"`
}

type logListResponse struct {
	Data []logResponse `json:"data"`
}

// ---- mapping ---------------------------------------------------------------

func tripToResponse(t domain.Trip) tripResponse {
	resp := tripResponse{
		ID:                   t.ID,
		CurrentLocation:      t.CurrentLocation,
		PickupLocation:       t.PickupLocation,
		DropoffLocation:      t.DropoffLocation,
		CurrentCycleUsed:     t.CurrentCycleUsed,
		DriverName:           t.DriverName,
		CarrierName:          t.CarrierName,
		VehicleNumbers:       t.VehicleNumbers,
		EstimatedDistance:    round2(t.EstimatedDistance),
		EstimatedDuration:    round2(t.EstimatedDuration),
		Status:               string(t.Status),
		StatusDisplay:        t.Status.Display(),
		RequiresMultipleLogs: t.RequiresMultipleLogs,
		IdempotencyKey:       t.IdempotencyKey,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
	if t.Route != nil {
		rt := routeToResponse(*t.Route)
		resp.Route = &rt
	}
	return resp
}

func routeToResponse(r domain.Route) routeResponse {
	wps := r.Waypoints
	if wps == nil {
		wps = []domain.Waypoint{}
	}
	return routeResponse{
		ID:            r.ID,
		TripID:        r.TripID,
		TotalDistance: round2(r.TotalDistance),
		TotalDuration: hours(r.TotalDuration),
		Waypoints:     wps,
		RestStops:     stopsToResponse(r.RestStops),
		FuelStops:     stopsToResponse(r.FuelStops),
		CreatedAt:     r.CreatedAt,
	}
}

func stopsToResponse(stops []domain.RouteStop) []stopResponse {
	out := make([]stopResponse, 0, len(stops))
	for _, s := range stops {
		kind := "rest"
		if s.IsFuel() {
			kind = "fuel"
		}
		out = append(out, stopResponse{
			Kind:               kind,
			Reason:             string(s.Reason),
			Location:           s.Location,
			Latitude:           s.Position.Lat,
			Longitude:          s.Position.Lng,
			MileMarker:         round2(s.MileMarker),
			ArrivalOffsetHours: hours(s.ArrivalOffset),
			DurationHours:      hours(s.Duration),
		})
	}
	return out
}

func logToResponse(l domain.LogEntry) logResponse {
	segs := make([]segmentResponse, 0, len(l.Segments))
	for _, s := range l.Segments {
		segs = append(segs, segmentResponse{
			Status:      string(s.Status),
			Date:        openapi_types.Date{Time: s.Date},
			StartTime:   s.Start,
			EndTime:     s.End,
			Location:    s.Location,
			MilesDriven: round2(s.MilesDriven),
			Note:        s.Note,
		})
	}
	return logResponse{
		ID:                l.ID,
		TripID:            l.TripID,
		Date:              openapi_types.Date{Time: l.Date},
		StartTime:         l.StartTime,
		EndTime:           l.EndTime,
		TotalMiles:        round2(l.TotalMiles),
		TotalHours:        round2(l.TotalHours),
		DrivingHours:      round2(l.DrivingHours),
		OnDutyHours:       round2(l.OnDutyHours),
		OffDutyHours:      round2(l.OffDutyHours),
		SleeperBerthHours: round2(l.SleeperBerthHours),
		DriverName:        l.DriverName,
		CarrierName:       l.CarrierName,
		VehicleNumbers:    l.VehicleNumbers,
		Remarks:           l.Remarks,
		Segments:          segs,
	}
}

func logsToResponse(logs []domain.LogEntry) logListResponse {
	out := logListResponse{Data: make([]logResponse, 0, len(logs))}
	for _, l := range logs {
		out.Data = append(out.Data, logToResponse(l))
	}
	return out
}

func hours(d time.Duration) float64 {
	return round2(d.Hours())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
