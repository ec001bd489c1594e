package handler

import (
	"net/http"
	"strings"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/service"
)

// idempotencyHeader lets clients retry POST /trips without creating duplicates.
const idempotencyHeader = "Idempotency-Key"

// planTrip handles POST /trips. A replay of a known Idempotency-Key answers
// 200 with the stored trip instead of 201.
func (s *Server) planTrip(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var body planTripRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.CurrentCycleUsed == nil {
		badRequest(w, "current_cycle_used", "is required")
		return
	}

	trip, created, err := s.trips.Plan(r.Context(), service.PlanInput{
		OwnerID:          ownerID,
		CurrentLocation:  body.CurrentLocation,
		PickupLocation:   body.PickupLocation,
		DropoffLocation:  body.DropoffLocation,
		CurrentCycleUsed: *body.CurrentCycleUsed,
		DriverName:       body.DriverName,
		CarrierName:      body.CarrierName,
		VehicleNumbers:   body.VehicleNumbers,
		IdempotencyKey:   strings.TrimSpace(r.Header.Get(idempotencyHeader)),
	})
	if err != nil {
		s.writeServiceError(w, r, "trip", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", "/trips/"+trip.ID.String())
	}
	writeJSON(w, status, tripToResponse(trip))
}

// listTrips handles GET /trips?page=&limit= (defaults 1 and 20, limit capped at 100).
func (s *Server) listTrips(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	page, ok := queryInt(w, r, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	result, err := s.trips.List(r.Context(), ownerID, domain.NewPaginationParams(page, limit))
	if err != nil {
		s.writeServiceError(w, r, "trip", err)
		return
	}

	data := make([]tripResponse, 0, len(result.Items))
	for _, t := range result.Items {
		data = append(data, tripToResponse(t))
	}
	writeJSON(w, http.StatusOK, tripListResponse{
		Data: data,
		Pagination: pagination{
			Page:  result.Page,
			Limit: result.Limit,
			Total: result.Total,
		},
	})
}

// getTrip handles GET /trips/{id}.
func (s *Server) getTrip(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	trip, err := s.trips.Get(r.Context(), ownerID, id)
	if err != nil {
		s.writeServiceError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// getRoute handles GET /trips/{id}/route.
func (s *Server) getRoute(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	trip, err := s.trips.Get(r.Context(), ownerID, id)
	if err != nil {
		s.writeServiceError(w, r, "trip", err)
		return
	}
	if trip.Route == nil {
		s.writeServiceError(w, r, "route", domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, routeToResponse(*trip.Route))
}

// updateTrip handles PATCH /trips/{id}. Absent fields are left unchanged.
func (s *Server) updateTrip(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body updateTripRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	u := domain.TripUpdate{
		ID:             id,
		OwnerID:        ownerID,
		DriverName:     body.DriverName,
		CarrierName:    body.CarrierName,
		VehicleNumbers: body.VehicleNumbers,
	}
	if body.Status != nil {
		st := domain.TripStatus(*body.Status)
		u.Status = &st
	}

	trip, err := s.trips.Update(r.Context(), u)
	if err != nil {
		s.writeServiceError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// deleteTrip handles DELETE /trips/{id}. Route and logs go with it.
func (s *Server) deleteTrip(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.trips.Delete(r.Context(), ownerID, id); err != nil {
		s.writeServiceError(w, r, "trip", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
