package hos_test

import (
	"testing"
	"time"
	_ "time/tzdata" // America/Denver without relying on system zoneinfo

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/hos"
)

// ---- helpers ---------------------------------------------------------------

func newSegmenter(t *testing.T) *hos.Segmenter {
	t.Helper()
	s, err := hos.NewSegmenter(hos.DefaultPolicy())
	require.NoError(t, err)
	return s
}

// planFixture starts at 08:00 UTC on a Monday with an empty cycle.
func planFixture() hos.Plan {
	return hos.Plan{
		Start:          time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC),
		Current:        "Chicago, IL",
		Pickup:         "Chicago, IL",
		Dropoff:        "Denver, CO",
		MilesToPickup:  0,
		MilesToDropoff: 650,
	}
}

func stopsWith(stops []domain.RouteStop, reason domain.StopReason) []domain.RouteStop {
	var out []domain.RouteStop
	for _, s := range stops {
		if s.Reason == reason {
			out = append(out, s)
		}
	}
	return out
}

// ---- Segment ---------------------------------------------------------------

func TestSegment_650Miles_SplitsAcrossTwoDays(t *testing.T) {
	res, err := newSegmenter(t).Segment(planFixture())
	require.NoError(t, err)

	require.NoError(t, checkCompliance(0, res.Segments))
	assert.InDelta(t, 650.0/55.0, res.DrivingTime.Hours(), 0.01)
	assert.InDelta(t, 650, res.Miles, 1e-6)
	assert.InDelta(t, 650, totalMiles(res.Segments), 1e-6)

	daily := stopsWith(res.Stops, domain.ReasonDailyRest)
	require.Len(t, daily, 1, "exactly one 10h rest")
	assert.Equal(t, 10*time.Hour, daily[0].Duration)
	assert.InDelta(t, 605, daily[0].MileMarker, 1e-6, "rest after 11h at 55 mph")
	assert.Len(t, stopsWith(res.Stops, domain.ReasonShortBreak), 1)

	logs := hos.BuildLogs(uuidFixture, res.Segments, hos.LogMeta{})
	assert.GreaterOrEqual(t, len(logs), 2)
	assert.True(t, hos.RequiresMultipleLogs(logs))
}

func TestSegment_ExactSchedule(t *testing.T) {
	res, err := newSegmenter(t).Segment(planFixture())
	require.NoError(t, err)

	at := func(h, m int) time.Time { return time.Date(2025, 6, 2, h, m, 0, 0, time.UTC) }
	next := func(h, m, s int) time.Time { return time.Date(2025, 6, 3, h, m, s, 0, time.UTC) }

	want := []struct {
		status     domain.DutyStatus
		start, end time.Time
	}{
		{domain.OnDutyNotDriving, at(8, 0), at(9, 0)},
		{domain.Driving, at(9, 0), at(17, 0)},
		{domain.OffDuty, at(17, 0), at(17, 30)},
		{domain.Driving, at(17, 30), at(20, 30)},
		{domain.SleeperBerth, at(20, 30), next(0, 0, 0)},
		{domain.SleeperBerth, next(0, 0, 0), next(6, 30, 0)},
		{domain.Driving, next(6, 30, 0), next(7, 19, 6)},
		{domain.OnDutyNotDriving, next(7, 19, 6), next(8, 19, 6)},
	}
	require.Len(t, res.Segments, len(want))
	for i, w := range want {
		got := res.Segments[i]
		assert.Equal(t, w.status, got.Status, "segment %d status", i)
		assert.True(t, w.start.Equal(got.Start), "segment %d start: want %s got %s", i, w.start, got.Start)
		assert.True(t, w.end.Equal(got.End), "segment %d end: want %s got %s", i, w.end, got.End)
	}
}

func TestSegment_CycleAt68_ForcesRestartBeforeOverrun(t *testing.T) {
	p := planFixture()
	p.CycleUsed = 68 * time.Hour
	p.MilesToDropoff = 200

	res, err := newSegmenter(t).Segment(p)
	require.NoError(t, err)
	require.NoError(t, checkCompliance(p.CycleUsed, res.Segments))

	restarts := stopsWith(res.Stops, domain.ReasonCycleReset)
	require.NotEmpty(t, restarts)
	assert.Equal(t, 34*time.Hour, restarts[0].Duration)
	// One hour of pickup work leaves one hour, or 55 miles, of driving.
	assert.InDelta(t, 55, restarts[0].MileMarker, 1e-6)
	assert.InDelta(t, 200, res.Miles, 1e-6)
}

func TestSegment_CycleAt70_RestartsBeforeAnyWork(t *testing.T) {
	p := planFixture()
	p.CycleUsed = 70 * time.Hour
	p.MilesToPickup = 100

	res, err := newSegmenter(t).Segment(p)
	require.NoError(t, err)
	require.NoError(t, checkCompliance(p.CycleUsed, res.Segments))

	require.NotEmpty(t, res.Stops)
	first := res.Stops[0]
	assert.Equal(t, domain.ReasonCycleReset, first.Reason)
	assert.Equal(t, time.Duration(0), first.ArrivalOffset)
	assert.Zero(t, first.MileMarker)

	restartEnd := p.Start.Add(hos.CycleRestart)
	for _, s := range res.Segments {
		if s.Status == domain.Driving {
			assert.False(t, s.Start.Before(restartEnd), "no driving before the restart completes")
		}
	}
}

func TestSegment_FuelStopEveryThousandMiles(t *testing.T) {
	p := planFixture()
	p.MilesToPickup = 400
	p.MilesToDropoff = 2100

	res, err := newSegmenter(t).Segment(p)
	require.NoError(t, err)
	require.NoError(t, checkCompliance(0, res.Segments))

	fuel := stopsWith(res.Stops, domain.ReasonFuel)
	require.Len(t, fuel, 2)
	assert.InDelta(t, 1000, fuel[0].MileMarker, 1e-6)
	assert.InDelta(t, 2000, fuel[1].MileMarker, 1e-6)
	assert.Equal(t, 30*time.Minute, fuel[0].Duration)
	assert.InDelta(t, 2500, totalMiles(res.Segments), 1e-6)
}

func TestSegment_ZeroDistanceTrip(t *testing.T) {
	p := planFixture()
	p.MilesToDropoff = 0

	res, err := newSegmenter(t).Segment(p)
	require.NoError(t, err)

	require.Len(t, res.Segments, 2, "pickup and dropoff stay separate segments")
	for _, s := range res.Segments {
		assert.Equal(t, domain.OnDutyNotDriving, s.Status)
	}
	assert.Zero(t, res.Miles)
	assert.Equal(t, 2*time.Hour, res.Elapsed())
}

func TestSegment_Deterministic(t *testing.T) {
	p := planFixture()
	p.MilesToPickup = 137.25
	p.CycleUsed = 41*time.Hour + 15*time.Minute

	s := newSegmenter(t)
	first, err := s.Segment(p)
	require.NoError(t, err)
	second, err := s.Segment(p)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSegment_InvalidPlan(t *testing.T) {
	p := planFixture()
	p.CycleUsed = 71 * time.Hour
	p.MilesToPickup = -3

	_, err := newSegmenter(t).Segment(p)

	require.ErrorIs(t, err, domain.ErrValidation)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "current_cycle_used")
	assert.Contains(t, verr.FieldErrors, "miles_to_pickup")
}

func TestSegment_UsesStartLocationForDays(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)

	p := planFixture()
	p.Start = time.Date(2025, 6, 2, 20, 0, 0, 0, denver)
	p.MilesToDropoff = 220 // 4h of driving

	res, err := newSegmenter(t).Segment(p)
	require.NoError(t, err)

	logs := hos.BuildLogs(uuidFixture, res.Segments, hos.LogMeta{})
	require.Len(t, logs, 2)
	assert.Equal(t, "2025-06-02", logs[0].DateString())
	assert.Equal(t, "2025-06-03", logs[1].DateString())
}

func TestNewSegmenter_RejectsBadPolicy(t *testing.T) {
	p := hos.DefaultPolicy()
	p.AvgSpeedMPH = 0
	_, err := hos.NewSegmenter(p)
	assert.Error(t, err)

	p = hos.DefaultPolicy()
	p.PickupDuration = 6 * time.Hour
	_, err = hos.NewSegmenter(p)
	assert.Error(t, err)
}

// ---- SplitAtMidnight -------------------------------------------------------

func TestSplitAtMidnight_CrossingSegment(t *testing.T) {
	seg := domain.DutySegment{
		Status:      domain.Driving,
		Start:       time.Date(2025, 6, 2, 23, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 6, 3, 1, 30, 0, 0, time.UTC),
		MilesDriven: 137.5,
	}

	parts := hos.SplitAtMidnight(seg)

	require.Len(t, parts, 2)
	assert.NotEqual(t, parts[0].Date, parts[1].Date)
	assert.Equal(t, seg.Duration(), parts[0].Duration()+parts[1].Duration())
	assert.True(t, parts[0].End.Equal(parts[1].Start))
	assert.InDelta(t, 55, parts[0].MilesDriven, 1e-9)
	assert.InDelta(t, 137.5, parts[0].MilesDriven+parts[1].MilesDriven, 1e-9)
}

func TestSplitAtMidnight_MultiDay(t *testing.T) {
	seg := domain.DutySegment{
		Status: domain.OffDuty,
		Start:  time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC),
		End:    time.Date(2025, 6, 4, 6, 0, 0, 0, time.UTC),
	}

	parts := hos.SplitAtMidnight(seg)

	require.Len(t, parts, 3)
	assert.Equal(t, 24*time.Hour, parts[1].Duration())
}

func TestSplitAtMidnight_EndingAtMidnightStaysWhole(t *testing.T) {
	seg := domain.DutySegment{
		Status: domain.SleeperBerth,
		Start:  time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC),
		End:    time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
	}

	parts := hos.SplitAtMidnight(seg)

	require.Len(t, parts, 1)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), parts[0].Date)
}
