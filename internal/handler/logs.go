package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/render"
	"github.com/pkordes/eld-planner/internal/service"
)

// generateLogs handles POST /trips/{id}/generate_logs. Previous logs for the
// trip are replaced.
func (s *Server) generateLogs(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r)
	if !ok {
		return
	}
	var body generateLogsRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.StartDate == nil {
		badRequest(w, "start_date", "is required")
		return
	}

	logs, err := s.logs.Generate(r.Context(), service.GenerateInput{
		OwnerID:   ownerID,
		TripID:    tripID,
		StartDate: body.StartDate.Time,
		StartHour: body.StartHour,
	})
	if err != nil {
		s.writeServiceError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, logsToResponse(logs))
}

// listLogs handles GET /trips/{id}/logs. ?format=csv returns every segment
// as CSV instead of JSON.
func (s *Server) listLogs(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "csv" {
		badRequest(w, "format", "must be json or csv")
		return
	}

	logs, err := s.logs.List(r.Context(), ownerID, tripID)
	if err != nil {
		s.writeServiceError(w, r, "trip", err)
		return
	}

	if format == "csv" {
		s.writeSegmentsCSV(w, r, fmt.Sprintf("trip-%s-logs.csv", tripID), logs)
		return
	}
	writeJSON(w, http.StatusOK, logsToResponse(logs))
}

// getLog handles GET /log-entries/{id}.
func (s *Server) getLog(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookupLog(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, logToResponse(l))
}

// downloadPDF handles GET /log-entries/{id}/download_pdf.
func (s *Server) downloadPDF(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookupLog(w, r)
	if !ok {
		return
	}
	s.writeRendered(w, r, "application/pdf", "log-"+l.DateString()+".pdf", func(buf io.Writer) error {
		return render.PDF(buf, l)
	})
}

// downloadImage handles GET /log-entries/{id}/download_image.
func (s *Server) downloadImage(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookupLog(w, r)
	if !ok {
		return
	}
	s.writeRendered(w, r, "image/png", "log-"+l.DateString()+".png", func(buf io.Writer) error {
		return render.PNG(buf, l)
	})
}

func (s *Server) lookupLog(w http.ResponseWriter, r *http.Request) (domain.LogEntry, bool) {
	ownerID, ok := owner(w, r)
	if !ok {
		return domain.LogEntry{}, false
	}
	id, ok := pathID(w, r)
	if !ok {
		return domain.LogEntry{}, false
	}
	l, err := s.logs.Get(r.Context(), ownerID, id)
	if err != nil {
		s.writeServiceError(w, r, "log entry", err)
		return domain.LogEntry{}, false
	}
	return l, true
}

// writeRendered renders into memory first so a render failure still gets a
// clean 500 instead of a truncated file.
func (s *Server) writeRendered(w http.ResponseWriter, r *http.Request, contentType, filename string, draw func(io.Writer) error) {
	var buf bytes.Buffer
	if err := draw(&buf); err != nil {
		s.writeServiceError(w, r, "log entry", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
