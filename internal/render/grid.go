// Package render draws a log entry as the familiar 24-hour duty-status grid,
// either as a PDF page or as a PNG image.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkordes/eld-planner/internal/domain"
)

const minutesPerDay = 24 * 60

// rows is the top-to-bottom order of the grid.
var rows = []struct {
	status domain.DutyStatus
	label  string
}{
	{domain.OffDuty, "Off Duty"},
	{domain.SleeperBerth, "Sleeper Berth"},
	{domain.Driving, "Driving"},
	{domain.OnDutyNotDriving, "On Duty (not driving)"},
}

func rowOf(s domain.DutyStatus) int {
	for i, r := range rows {
		if r.status == s {
			return i
		}
	}
	return 0
}

// rowHours returns the total hours per grid row.
func rowHours(l domain.LogEntry) []float64 {
	return []float64{l.OffDutyHours, l.SleeperBerthHours, l.DrivingHours, l.OnDutyHours}
}

// span is one segment placed on the grid, in minutes after local midnight.
type span struct {
	row      int
	from, to float64
}

func spans(l domain.LogEntry) []span {
	out := make([]span, 0, len(l.Segments))
	for _, s := range l.Segments {
		start := s.Start
		midnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		from := start.Sub(midnight).Minutes()
		to := min(s.End.Sub(midnight).Minutes(), minutesPerDay)
		out = append(out, span{row: rowOf(s.Status), from: from, to: to})
	}
	return out
}

// hourLabel names grid columns the way paper logs do.
func hourLabel(h int) string {
	switch h {
	case 0, 24:
		return "M"
	case 12:
		return "N"
	default:
		return fmt.Sprint(h % 12)
	}
}

// ascii replaces the route arrow, which neither core PDF fonts nor the
// bitmap font can draw.
func ascii(s string) string {
	return strings.ReplaceAll(s, "→", "->")
}

func clock(t time.Time) string {
	return t.Format("15:04")
}

func title(l domain.LogEntry) string {
	return "Driver's Daily Log " + l.DateString()
}
