package hos

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/eld-planner/internal/domain"
)

// LogMeta is the trip metadata copied onto every log entry.
type LogMeta struct {
	DriverName     string
	CarrierName    string
	VehicleNumbers string
}

// LogID derives a stable log entry id from the trip and the calendar day, so
// regenerating logs for unchanged input yields identical entries.
func LogID(tripID uuid.UUID, date time.Time) uuid.UUID {
	return uuid.NewSHA1(tripID, []byte(date.Format(time.DateOnly)))
}

// BuildLogs groups chronological segments into one LogEntry per calendar
// date. Segments must already be split at midnight, as Segmenter output is.
func BuildLogs(tripID uuid.UUID, segs []domain.DutySegment, meta LogMeta) []domain.LogEntry {
	var logs []domain.LogEntry

	for _, seg := range segs {
		n := len(logs)
		if n == 0 || !logs[n-1].Date.Equal(seg.Date) {
			logs = append(logs, domain.LogEntry{
				ID:             LogID(tripID, seg.Date),
				TripID:         tripID,
				Date:           seg.Date,
				StartTime:      seg.Start,
				DriverName:     meta.DriverName,
				CarrierName:    meta.CarrierName,
				VehicleNumbers: meta.VehicleNumbers,
			})
			n++
		}
		entry := &logs[n-1]
		entry.Segments = append(entry.Segments, seg)
		entry.EndTime = seg.End

		hours := seg.Duration().Hours()
		entry.TotalHours += hours
		switch seg.Status {
		case domain.Driving:
			entry.DrivingHours += hours
			entry.TotalMiles += seg.MilesDriven
		case domain.OnDutyNotDriving:
			entry.OnDutyHours += hours
		case domain.OffDuty:
			entry.OffDutyHours += hours
		case domain.SleeperBerth:
			entry.SleeperBerthHours += hours
		}
	}

	for i := range logs {
		logs[i].Remarks = remarks(logs[i].Segments)
	}
	return logs
}

// remarks lists the distinct notes of the day's non-driving segments, in
// order, each with its location.
func remarks(segs []domain.DutySegment) string {
	seen := map[string]bool{}
	var out []string
	for _, s := range segs {
		if s.Status == domain.Driving || s.Note == "" {
			continue
		}
		r := s.Note
		if s.Location != "" && !strings.Contains(s.Note, s.Location) {
			r += " (" + s.Location + ")"
		}
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return strings.Join(out, "; ")
}

// RequiresMultipleLogs reports whether the trip spans more than one day.
func RequiresMultipleLogs(logs []domain.LogEntry) bool {
	return len(logs) > 1
}
