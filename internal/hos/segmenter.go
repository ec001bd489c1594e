package hos

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pkordes/eld-planner/internal/domain"
)

// mileEpsilon absorbs float drift when legs are consumed tick by tick.
const mileEpsilon = 1e-6

// Plan is the input to one segmentation run.
type Plan struct {
	// Start is the moment the driver comes on duty. Its location decides
	// where calendar days begin and end.
	Start time.Time

	// CycleUsed is the on-duty time already spent in the current cycle.
	CycleUsed time.Duration

	Current string
	Pickup  string
	Dropoff string

	MilesToPickup  float64
	MilesToDropoff float64
}

func (p Plan) validate() error {
	verr := domain.NewValidationError()
	if p.Start.IsZero() {
		verr.Field("start", "is required")
	}
	if p.CycleUsed < 0 || p.CycleUsed > CycleLimit {
		verr.Field("current_cycle_used", fmt.Sprintf("must be between 0 and %v hours", CycleLimit.Hours()))
	}
	for field, miles := range map[string]float64{"miles_to_pickup": p.MilesToPickup, "miles_to_dropoff": p.MilesToDropoff} {
		if math.IsNaN(miles) || math.IsInf(miles, 0) || miles < 0 {
			verr.Field(field, "must be a non-negative distance")
		}
	}
	return verr.OrNil()
}

// Result is the output of a segmentation run.
type Result struct {
	// Segments are chronological, contiguous and never cross local midnight.
	Segments []domain.DutySegment

	// Stops lists every rest and fuel stop in the order they were inserted.
	// Position is left zero; callers that know the route geometry fill it.
	Stops []domain.RouteStop

	DrivingTime time.Duration
	Miles       float64
	End         time.Time
}

// Elapsed is the wall time from coming on duty to finishing the dropoff.
func (r Result) Elapsed() time.Duration {
	if len(r.Segments) == 0 {
		return 0
	}
	return r.End.Sub(r.Segments[0].Start)
}

// Segmenter turns a plan into HOS-compliant duty segments.
type Segmenter struct {
	policy Policy
}

// NewSegmenter returns a Segmenter using policy. It fails if the policy is invalid.
func NewSegmenter(policy Policy) (*Segmenter, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Segmenter{policy: policy}, nil
}

// Policy returns the policy the segmenter was built with.
func (s *Segmenter) Policy() Policy {
	return s.policy
}

// Segment simulates the trip: drive to pickup, load, drive to dropoff,
// unload. Rests are inserted whenever the clock demands them and fuel stops
// every FuelIntervalMiles.
func (s *Segmenter) Segment(p Plan) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}

	sim := &simulation{
		policy: s.policy,
		clock:  NewClock(p.CycleUsed),
		start:  p.Start,
		now:    p.Start,
	}

	steps := []func() error{
		func() error { return sim.drive(p.Current, p.Pickup, p.MilesToPickup) },
		func() error {
			return sim.work(p.Pickup, s.policy.PickupDuration, "Pickup at "+p.Pickup, "")
		},
		func() error { return sim.drive(p.Pickup, p.Dropoff, p.MilesToDropoff) },
		func() error {
			return sim.work(p.Dropoff, s.policy.DropoffDuration, "Dropoff at "+p.Dropoff, "")
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return Result{}, fmt.Errorf("hos.Segmenter.Segment: %w", err)
		}
	}

	return Result{
		Segments:    sim.segs,
		Stops:       sim.stops,
		DrivingTime: sim.driving,
		Miles:       sim.odometer,
		End:         sim.now,
	}, nil
}

// simulation is the mutable state of one Segment call.
type simulation struct {
	policy Policy
	clock  *Clock

	start time.Time
	now   time.Time

	segs  []domain.DutySegment
	stops []domain.RouteStop

	odometer  float64
	sinceFuel float64
	driving   time.Duration
}

func (sim *simulation) drive(from, to string, miles float64) error {
	label := from + " → " + to
	remaining := miles

	for remaining > mileEpsilon {
		if err := sim.restIfRequired(label); err != nil {
			return err
		}

		fuelEvery := sim.policy.FuelIntervalMiles
		if fuelEvery > 0 && sim.sinceFuel >= fuelEvery-mileEpsilon {
			if err := sim.work(label, sim.policy.FuelStopDuration, "Fuel stop", domain.ReasonFuel); err != nil {
				return err
			}
			sim.sinceFuel = 0
			continue
		}

		step := min(sim.policy.Tick, sim.clock.DrivingAvailable())
		if step <= 0 {
			return fmt.Errorf("no driving time available after rest: %w", domain.ErrLimitExceeded)
		}

		limit := remaining
		if fuelEvery > 0 {
			limit = min(limit, fuelEvery-sim.sinceFuel)
		}
		driven := sim.milesIn(step)
		if need := sim.timeFor(limit); need <= step {
			step, driven = need, limit
		}

		if _, err := sim.clock.Advance(step, domain.Driving); err != nil {
			return err
		}
		sim.emit(domain.Driving, step, label, driven, "")

		remaining -= driven
		sim.sinceFuel += driven
		sim.odometer += driven
		sim.driving += step
	}
	return nil
}

// work books an on-duty, not driving, block at location, resting first if
// the block would overrun the window or the cycle. A non-empty reason
// records the block as a route stop.
func (sim *simulation) work(location string, d time.Duration, note string, reason domain.StopReason) error {
	if d <= 0 {
		return nil
	}
	for r := sim.clock.RestFor(d); r != RestNone; r = sim.clock.RestFor(d) {
		if err := sim.rest(r, location); err != nil {
			return err
		}
	}
	if reason != "" {
		sim.recordStop(reason, location, d)
	}
	if _, err := sim.clock.Advance(d, domain.OnDutyNotDriving); err != nil {
		return err
	}
	sim.emit(domain.OnDutyNotDriving, d, location, 0, note)
	return nil
}

func (sim *simulation) restIfRequired(location string) error {
	for r := sim.clock.Required(); r != RestNone; r = sim.clock.Required() {
		if err := sim.rest(r, location); err != nil {
			return err
		}
	}
	return nil
}

var restNotes = map[Rest]string{
	RestShortBreak: "30-minute break",
	RestDaily:      "10-hour rest",
	RestCycle:      "34-hour restart",
}

func (sim *simulation) rest(r Rest, location string) error {
	d := r.Duration()
	if d <= 0 {
		return errors.New("no rest duration for " + r.String())
	}
	sim.recordStop(r.Reason(), location, d)
	if _, err := sim.clock.Advance(d, r.Status()); err != nil {
		return err
	}
	sim.emit(r.Status(), d, location, 0, restNotes[r])
	return nil
}

func (sim *simulation) recordStop(reason domain.StopReason, location string, d time.Duration) {
	sim.stops = append(sim.stops, domain.RouteStop{
		Reason:        reason,
		Location:      location,
		MileMarker:    sim.odometer,
		ArrivalOffset: sim.now.Sub(sim.start),
		Duration:      d,
	})
}

// emit appends a segment starting now, splitting it at midnight and merging
// it into the previous segment when nothing but time separates them.
func (sim *simulation) emit(status domain.DutyStatus, d time.Duration, location string, miles float64, note string) {
	if d <= 0 {
		return
	}
	seg := domain.DutySegment{
		Status:      status,
		Start:       sim.now,
		End:         sim.now.Add(d),
		Location:    location,
		MilesDriven: miles,
		Note:        note,
	}
	sim.now = seg.End

	for _, part := range SplitAtMidnight(seg) {
		if n := len(sim.segs); n > 0 && mergeable(sim.segs[n-1], part) {
			sim.segs[n-1].End = part.End
			sim.segs[n-1].MilesDriven += part.MilesDriven
			continue
		}
		sim.segs = append(sim.segs, part)
	}
}

func mergeable(prev, next domain.DutySegment) bool {
	return prev.Status == next.Status &&
		prev.Location == next.Location &&
		prev.Note == next.Note &&
		prev.End.Equal(next.Start) &&
		prev.Date.Equal(next.Date)
}

// milesIn is the distance covered in d at the policy speed.
func (sim *simulation) milesIn(d time.Duration) float64 {
	return sim.policy.AvgSpeedMPH * d.Hours()
}

// timeFor is the driving time for miles at the policy speed, rounded up to
// a whole second.
func (sim *simulation) timeFor(miles float64) time.Duration {
	return time.Duration(math.Ceil(miles/sim.policy.AvgSpeedMPH*3600)) * time.Second
}

// SplitAtMidnight cuts seg at every local midnight it crosses, in the
// location of seg.Start. Each part gets its own Date; miles are prorated by
// duration with the remainder on the last part so the total is preserved.
func SplitAtMidnight(seg domain.DutySegment) []domain.DutySegment {
	loc := seg.Start.Location()
	total := seg.Duration()
	var parts []domain.DutySegment

	start := seg.Start
	milesLeft := seg.MilesDriven
	for {
		day := midnight(start, loc)
		next := day.AddDate(0, 0, 1)

		part := seg
		part.Date = day
		part.Start = start
		if !next.Before(seg.End) {
			part.End = seg.End
			part.MilesDriven = milesLeft
			parts = append(parts, part)
			return parts
		}

		part.End = next
		if total > 0 {
			part.MilesDriven = seg.MilesDriven * float64(part.Duration()) / float64(total)
		}
		milesLeft -= part.MilesDriven
		parts = append(parts, part)
		start = next
	}
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
