package hos

import (
	"fmt"
	"time"
)

// Policy holds the planning assumptions the segmenter uses. Unlike the HOS
// limits these are business defaults, not regulation, so they can be tuned
// per deployment.
type Policy struct {
	// AvgSpeedMPH converts leg distance into driving time.
	AvgSpeedMPH float64

	// Tick is the largest single step of simulated driving.
	Tick time.Duration

	// FuelIntervalMiles is the distance between fuel stops. Zero disables fuel stops.
	FuelIntervalMiles float64

	// FuelStopDuration is the on-duty time spent fuelling.
	FuelStopDuration time.Duration

	// PickupDuration and DropoffDuration are the on-duty loading and unloading times.
	PickupDuration  time.Duration
	DropoffDuration time.Duration
}

// DefaultPolicy returns 55 mph, 15 minute ticks, a 30 minute fuel stop every
// 1000 miles and one hour each for pickup and dropoff.
func DefaultPolicy() Policy {
	return Policy{
		AvgSpeedMPH:       55,
		Tick:              15 * time.Minute,
		FuelIntervalMiles: 1000,
		FuelStopDuration:  30 * time.Minute,
		PickupDuration:    time.Hour,
		DropoffDuration:   time.Hour,
	}
}

// maxWorkBlock bounds a single on-duty block so that one rest is always
// enough to make room for it.
const maxWorkBlock = 4 * time.Hour

// Validate checks that the policy can drive a terminating simulation.
func (p Policy) Validate() error {
	switch {
	case !(p.AvgSpeedMPH > 0):
		return fmt.Errorf("hos.Policy: average speed must be positive, got %v", p.AvgSpeedMPH)
	case p.Tick < time.Minute || p.Tick > time.Hour:
		return fmt.Errorf("hos.Policy: tick must be between 1m and 1h, got %s", p.Tick)
	case p.Tick%time.Second != 0:
		return fmt.Errorf("hos.Policy: tick must be whole seconds, got %s", p.Tick)
	case p.FuelIntervalMiles < 0:
		return fmt.Errorf("hos.Policy: fuel interval must not be negative, got %v", p.FuelIntervalMiles)
	}
	blocks := []struct {
		name string
		d    time.Duration
	}{
		{"fuel stop", p.FuelStopDuration},
		{"pickup", p.PickupDuration},
		{"dropoff", p.DropoffDuration},
	}
	for _, b := range blocks {
		if b.d < 0 || b.d > maxWorkBlock || b.d%time.Second != 0 {
			return fmt.Errorf("hos.Policy: %s duration must be whole seconds in [0, %s], got %s", b.name, maxWorkBlock, b.d)
		}
	}
	return nil
}
