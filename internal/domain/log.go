package domain

import (
	"time"

	"github.com/google/uuid"
)

// DutyStatus is one of the four ELD duty statuses.
type DutyStatus string

const (
	OffDuty          DutyStatus = "off_duty"
	SleeperBerth     DutyStatus = "sleeper_berth"
	Driving          DutyStatus = "driving"
	OnDutyNotDriving DutyStatus = "on_duty_not_driving"
)

// OnDuty reports whether time spent in s counts toward the on-duty window
// and the cycle.
func (s DutyStatus) OnDuty() bool {
	return s == Driving || s == OnDutyNotDriving
}

// DutySegment is a contiguous block of one duty status.
// A segment never crosses local midnight; Date is the local calendar day at
// Start truncated to midnight.
type DutySegment struct {
	Status      DutyStatus `json:"status"`
	Date        time.Time  `json:"date"`
	Start       time.Time  `json:"start_time"`
	End         time.Time  `json:"end_time"`
	Location    string     `json:"location"`
	MilesDriven float64    `json:"miles_driven,omitempty"`
	Note        string     `json:"note,omitempty"`
}

// Duration returns End - Start.
func (s DutySegment) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// LogEntry is one calendar day's record of duty segments for a trip.
type LogEntry struct {
	ID                uuid.UUID
	TripID            uuid.UUID
	Date              time.Time
	StartTime         time.Time
	EndTime           time.Time
	TotalMiles        float64
	TotalHours        float64
	DrivingHours      float64
	OnDutyHours       float64
	OffDutyHours      float64
	SleeperBerthHours float64
	DriverName        string
	CarrierName       string
	VehicleNumbers    string
	Remarks           string
	Segments          []DutySegment
	CreatedAt         time.Time
}

// DateString formats Date as YYYY-MM-DD.
func (l LogEntry) DateString() string {
	return l.Date.Format(time.DateOnly)
}
