// Package hos simulates a commercial driver's duty day under the federal
// Hours-of-Service rules and turns a planned route into daily driver logs.
//
// The package is pure: no I/O, no wall clock reads. Given the same inputs it
// always produces the same segments.
package hos

import (
	"fmt"
	"time"

	"github.com/pkordes/eld-planner/internal/domain"
)

// Federal property-carrying driver limits. These are regulation and are not
// part of Policy.
const (
	MaxDriving      = 11 * time.Hour // driving per duty period
	MaxWindow       = 14 * time.Hour // elapsed time after coming on duty
	DailyRestPeriod = 10 * time.Hour // consecutive off duty that starts a new duty period
	CycleLimit      = 70 * time.Hour // on-duty cap for the 8-day cycle
	BreakAfter      = 8 * time.Hour  // cumulative driving before a break is due
	BreakDuration   = 30 * time.Minute
	CycleRestart    = 34 * time.Hour // consecutive off duty that restarts the cycle
)

// Rest is the kind of rest the clock requires before more driving.
type Rest int

const (
	RestNone Rest = iota
	RestShortBreak
	RestDaily
	RestCycle
)

func (r Rest) String() string {
	switch r {
	case RestShortBreak:
		return "short_break"
	case RestDaily:
		return "daily_rest"
	case RestCycle:
		return "cycle_reset"
	default:
		return "none"
	}
}

// Duration is the minimum length of the rest.
func (r Rest) Duration() time.Duration {
	switch r {
	case RestShortBreak:
		return BreakDuration
	case RestDaily:
		return DailyRestPeriod
	case RestCycle:
		return CycleRestart
	default:
		return 0
	}
}

// Status is the duty status the rest is logged under. Daily rests go in the
// sleeper berth; breaks and restarts are logged off duty.
func (r Rest) Status() domain.DutyStatus {
	if r == RestDaily {
		return domain.SleeperBerth
	}
	return domain.OffDuty
}

// Reason maps the rest to the stop reason stored on the route.
func (r Rest) Reason() domain.StopReason {
	switch r {
	case RestShortBreak:
		return domain.ReasonShortBreak
	case RestCycle:
		return domain.ReasonCycleReset
	default:
		return domain.ReasonDailyRest
	}
}

// Clock tracks the running HOS counters for one driver through a simulation.
// The zero value is a rested driver with an empty cycle.
type Clock struct {
	driveToday    time.Duration
	dutyToday     time.Duration
	window        time.Duration
	windowOpen    bool
	cycleUsed     time.Duration
	sinceBreak    time.Duration
	offRun        time.Duration
	nonDrivingRun time.Duration
}

// NewClock returns a clock at the start of a duty period with cycleUsed
// hours already spent in the current cycle. The seed is clamped to
// [0, CycleLimit].
func NewClock(cycleUsed time.Duration) *Clock {
	return &Clock{cycleUsed: max(0, min(cycleUsed, CycleLimit))}
}

// Advance applies d of activity in status s to the counters and returns the
// rest that is now required before any further driving.
//
// Driving longer than DrivingAvailable, or on-duty work longer than
// OnDutyAvailable, fails with domain.ErrLimitExceeded and leaves the clock
// unchanged. Callers must insert the rest first.
func (c *Clock) Advance(d time.Duration, s domain.DutyStatus) (Rest, error) {
	if d < 0 {
		return RestNone, fmt.Errorf("hos.Clock.Advance: negative duration %s", d)
	}

	switch s {
	case domain.Driving:
		if avail := c.DrivingAvailable(); d > avail {
			return c.Required(), fmt.Errorf("hos.Clock.Advance: %s driving with %s available: %w", d, avail, domain.ErrLimitExceeded)
		}
		c.onDuty(d)
		c.driveToday += d
		c.sinceBreak += d
		c.nonDrivingRun = 0

	case domain.OnDutyNotDriving:
		if avail := c.OnDutyAvailable(); d > avail {
			return c.Required(), fmt.Errorf("hos.Clock.Advance: %s on duty with %s available: %w", d, avail, domain.ErrLimitExceeded)
		}
		c.onDuty(d)
		c.interrupt(d)

	case domain.OffDuty, domain.SleeperBerth:
		if c.windowOpen {
			c.window += d
		}
		c.offRun += d
		c.interrupt(d)
		if c.offRun >= CycleRestart {
			c.cycleUsed = 0
		}
		if c.offRun >= DailyRestPeriod {
			c.ResetDay()
		}

	default:
		return RestNone, fmt.Errorf("hos.Clock.Advance: unknown duty status %q", s)
	}

	return c.Required(), nil
}

// onDuty books d against the window and the cycle.
func (c *Clock) onDuty(d time.Duration) {
	c.windowOpen = true
	c.window += d
	c.dutyToday += d
	c.cycleUsed += d
	c.offRun = 0
}

// interrupt books d of non-driving time; 30 consecutive minutes of it
// satisfy the break requirement.
func (c *Clock) interrupt(d time.Duration) {
	c.nonDrivingRun += d
	if c.nonDrivingRun >= BreakDuration {
		c.sinceBreak = 0
	}
}

// ResetDay starts a new duty period. Daily counters are zeroed; the cycle is not.
func (c *Clock) ResetDay() {
	c.driveToday = 0
	c.dutyToday = 0
	c.window = 0
	c.windowOpen = false
	c.sinceBreak = 0
}

// Required returns the rest needed before more driving.
// Cycle resets take priority over daily rests, which take priority over breaks.
func (c *Clock) Required() Rest {
	switch {
	case c.cycleUsed >= CycleLimit:
		return RestCycle
	case c.driveToday >= MaxDriving, c.window >= MaxWindow:
		return RestDaily
	case c.sinceBreak >= BreakAfter:
		return RestShortBreak
	default:
		return RestNone
	}
}

// RestFor returns the rest needed before d of on-duty, not driving, work can
// be done without overrunning the cycle or the 14-hour window.
func (c *Clock) RestFor(d time.Duration) Rest {
	switch {
	case c.cycleUsed+d > CycleLimit:
		return RestCycle
	case c.window+d > MaxWindow:
		return RestDaily
	default:
		return RestNone
	}
}

// OnDutyAvailable is the on-duty time left before the window closes or the
// cycle runs out.
func (c *Clock) OnDutyAvailable() time.Duration {
	return max(0, min(MaxWindow-c.window, CycleLimit-c.cycleUsed))
}

// DrivingAvailable is the driving time left before any limit saturates.
func (c *Clock) DrivingAvailable() time.Duration {
	return max(0, min(MaxDriving-c.driveToday, BreakAfter-c.sinceBreak, c.OnDutyAvailable()))
}

// Snapshot exposes the counters for logging and tests.
type Snapshot struct {
	DriveToday time.Duration
	DutyToday  time.Duration
	Window     time.Duration
	CycleUsed  time.Duration
	SinceBreak time.Duration
	OffRun     time.Duration
}

// Snapshot returns the current counters.
func (c *Clock) Snapshot() Snapshot {
	return Snapshot{
		DriveToday: c.driveToday,
		DutyToday:  c.dutyToday,
		Window:     c.window,
		CycleUsed:  c.cycleUsed,
		SinceBreak: c.sinceBreak,
		OffRun:     c.offRun,
	}
}
