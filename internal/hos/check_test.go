package hos_test

import (
	"fmt"
	"time"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/hos"
)

// checkCompliance replays segments independently of hos.Clock and reports
// the first HOS or layout violation it finds.
func checkCompliance(cycleSeed time.Duration, segs []domain.DutySegment) error {
	var (
		driving     time.Duration // in the current duty period
		windowStart time.Time     // zero until the first on-duty minute of the period
		cycle       = cycleSeed
		sinceBreak  time.Duration
		offRun      time.Duration
		nonDriving  time.Duration
	)

	for i, s := range segs {
		d := s.Duration()
		if d <= 0 {
			return fmt.Errorf("segment %d: non-positive duration %s", i, d)
		}
		if i > 0 && !segs[i-1].End.Equal(s.Start) {
			return fmt.Errorf("segment %d: gap or overlap after %s", i, segs[i-1].End)
		}
		y, m, day := s.Start.Date()
		if want := time.Date(y, m, day, 0, 0, 0, 0, s.Start.Location()); !s.Date.Equal(want) {
			return fmt.Errorf("segment %d: date %s does not match start %s", i, s.Date, s.Start)
		}
		if s.End.After(s.Date.AddDate(0, 0, 1)) {
			return fmt.Errorf("segment %d: crosses midnight", i)
		}

		switch s.Status {
		case domain.OffDuty, domain.SleeperBerth:
			offRun += d
			nonDriving += d
			if nonDriving >= hos.BreakDuration {
				sinceBreak = 0
			}
			if offRun >= hos.CycleRestart {
				cycle = 0
			}
			if offRun >= hos.DailyRestPeriod {
				driving, windowStart, sinceBreak = 0, time.Time{}, 0
			}
			continue
		case domain.Driving:
			driving += d
			sinceBreak += d
			nonDriving = 0
			if s.MilesDriven <= 0 {
				return fmt.Errorf("segment %d: driving without miles", i)
			}
		case domain.OnDutyNotDriving:
			nonDriving += d
			if nonDriving >= hos.BreakDuration {
				sinceBreak = 0
			}
		}

		offRun = 0
		cycle += d
		if windowStart.IsZero() {
			windowStart = s.Start
		}
		switch {
		case driving > hos.MaxDriving:
			return fmt.Errorf("segment %d: %s driving in one duty period", i, driving)
		case s.End.Sub(windowStart) > hos.MaxWindow:
			return fmt.Errorf("segment %d: on duty %s after the window opened", i, s.End.Sub(windowStart))
		case sinceBreak > hos.BreakAfter:
			return fmt.Errorf("segment %d: %s driving without a break", i, sinceBreak)
		case cycle > hos.CycleLimit:
			return fmt.Errorf("segment %d: cycle at %s", i, cycle)
		}
	}
	return nil
}

func totalMiles(segs []domain.DutySegment) float64 {
	var miles float64
	for _, s := range segs {
		miles += s.MilesDriven
	}
	return miles
}
