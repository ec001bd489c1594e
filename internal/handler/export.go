package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkordes/eld-planner/internal/domain"
)

// csvHeaders is the first row of a segment export.
var csvHeaders = []string{
	"log_id", "date", "status", "start_time", "end_time",
	"duration_hours", "location", "miles_driven", "note",
}

// writeSegmentsCSV writes one row per duty segment across all logs.
func (s *Server) writeSegmentsCSV(w http.ResponseWriter, r *http.Request, filename string, logs []domain.LogEntry) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	records := [][]string{csvHeaders}
	for _, l := range logs {
		for _, seg := range l.Segments {
			records = append(records, segmentToCSVRecord(l, seg))
		}
	}
	if err := cw.WriteAll(records); err != nil {
		s.writeServiceError(w, r, "log entry", fmt.Errorf("handler.writeSegmentsCSV: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// segmentToCSVRecord encodes one segment. Times are RFC3339 in the log's
// own zone so the offset shows which local day they belong to.
func segmentToCSVRecord(l domain.LogEntry, seg domain.DutySegment) []string {
	miles := ""
	if seg.Status == domain.Driving {
		miles = strconv.FormatFloat(round2(seg.MilesDriven), 'f', 2, 64)
	}
	return []string{
		l.ID.String(),
		l.DateString(),
		string(seg.Status),
		seg.Start.Format(time.RFC3339),
		seg.End.Format(time.RFC3339),
		strconv.FormatFloat(hours(seg.Duration()), 'f', 2, 64),
		seg.Location,
		miles,
		seg.Note,
	}
}
