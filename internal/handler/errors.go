package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/eld-planner/internal/domain"
)

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, d errorDetail) {
	writeJSON(w, status, errorResponse{Error: d})
}

// badRequest reports a request rejected before it reached a service.
func badRequest(w http.ResponseWriter, field, msg string) {
	d := errorDetail{Code: "validation_error", Message: msg}
	if field != "" {
		d.Message = field + " " + msg
		d.Fields = map[string]string{field: msg}
	}
	writeError(w, http.StatusBadRequest, d)
}

// writeServiceError maps a service error to its HTTP response.
// what names the resource for 404 messages, e.g. "trip".
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, what string, err error) {
	var (
		verr    *domain.ValidationError
		tooBig  *http.MaxBytesError
		status  int
		details errorDetail
	)
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		details = errorDetail{Code: "validation_error", Message: validationMessage(verr), Fields: verr.FieldErrors}
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
		details = errorDetail{Code: "validation_error", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		details = errorDetail{Code: "not_found", Message: what + " not found"}
	case errors.Is(err, domain.ErrImmutable):
		status = http.StatusConflict
		details = errorDetail{Code: "trip_immutable", Message: "completed trips cannot be changed"}
	case errors.Is(err, domain.ErrConflict):
		w.Header().Set("Retry-After", "1")
		status = http.StatusConflict
		details = errorDetail{Code: "conflict", Message: "trip is being modified by another request", Retryable: true}
	case errors.Is(err, domain.ErrRouteUnavailable):
		status = http.StatusBadGateway
		details = errorDetail{Code: "route_unavailable", Message: "route could not be computed, try again", Retryable: true}
	case errors.As(err, &tooBig):
		status = http.StatusRequestEntityTooLarge
		details = errorDetail{Code: "request_too_large", Message: "request body too large"}
	default:
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		status = http.StatusInternalServerError
		details = errorDetail{Code: "internal_error", Message: "internal server error"}
	}
	writeError(w, status, details)
}

// validationMessage summarises a ValidationError without the sentinel prefix.
func validationMessage(verr *domain.ValidationError) string {
	if len(verr.GeneralErrors) > 0 {
		return strings.Join(verr.GeneralErrors, "; ")
	}
	return "request failed validation"
}
