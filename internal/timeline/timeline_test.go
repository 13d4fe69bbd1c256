package timeline_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/itinerary-planner/internal/domain"
	"github.com/pkordes/itinerary-planner/internal/timeline"
)

var day1 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func at(hhmm string) time.Time {
	t, _ := time.Parse("15:04", hhmm)
	return day1.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

func twoStopDay() domain.Day {
	a := domain.Stop{ID: uuid.New(), PlaceName: "A", StaySeconds: 3600}
	b := domain.Stop{
		ID:          uuid.New(),
		PlaceName:   "B",
		StaySeconds: 1800,
		Segment:     &domain.TravelSegment{Mode: domain.ModeDriving, DurationSeconds: 1800, FromStopID: a.ID},
	}
	return domain.Day{Date: day1, DepartureTime: "08:00", Stops: []domain.Stop{a, b}}
}

func TestCompute_Arithmetic(t *testing.T) {
	got := timeline.Compute(twoStopDay())

	require.Len(t, got, 2)
	assert.Equal(t, at("08:00"), got[0].Start)
	assert.Equal(t, at("09:00"), got[0].End)
	assert.Equal(t, at("09:30"), got[1].Start)
	assert.Equal(t, at("10:00"), got[1].End)
	assert.Equal(t, 1800, got[1].TravelSeconds)
	assert.Equal(t, 1, got[1].Position)
}

func TestCompute_MissingSegmentCountsAsZero(t *testing.T) {
	d := twoStopDay()
	d.Stops[1].Segment = nil

	got := timeline.Compute(d)

	assert.Equal(t, at("09:00"), got[1].Start, "pending route must not block the projection")
	assert.Equal(t, 0, got[1].TravelSeconds)
}

func TestCompute_FirstStopSegmentIgnored(t *testing.T) {
	d := twoStopDay()
	d.Stops[0].Segment = &domain.TravelSegment{DurationSeconds: 999}

	got := timeline.Compute(d)

	assert.Equal(t, at("08:00"), got[0].Start)
}

func TestCompute_InvalidDepartureFallsBack(t *testing.T) {
	for _, dep := range []string{"", "late morning", "25:99"} {
		d := twoStopDay()
		d.DepartureTime = dep

		got := timeline.Compute(d)

		assert.Equal(t, at("08:00"), got[0].Start, "departure %q", dep)
	}
}

func TestCompute_CustomDeparture(t *testing.T) {
	d := twoStopDay()
	d.DepartureTime = "10:15"

	got := timeline.Compute(d)

	assert.Equal(t, at("10:15"), got[0].Start)
	assert.Equal(t, at("11:45"), got[1].Start)
}

func TestCompute_EmptyDay(t *testing.T) {
	d := domain.Day{Date: day1, DepartureTime: "09:00"}

	assert.Empty(t, timeline.Compute(d))
	assert.Equal(t, at("09:00"), timeline.EndOfDay(d))
}

func TestProject_RestartableAndStoppable(t *testing.T) {
	seq := timeline.Project(twoStopDay())

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
		break
	}

	assert.Equal(t, 2, first)
	assert.Equal(t, 1, second)
}

func TestCompute_StayUpdateIsIdempotent(t *testing.T) {
	d := twoStopDay()
	d.Stops[0].StaySeconds = 5400
	once := timeline.Compute(d)
	d.Stops[0].StaySeconds = 5400
	twice := timeline.Compute(d)

	assert.Equal(t, once, twice)
	assert.Equal(t, at("10:30"), timeline.EndOfDay(d))
}

func TestParseDeparture(t *testing.T) {
	off, ok := timeline.ParseDeparture("07:45")
	require.True(t, ok)
	assert.Equal(t, 7*time.Hour+45*time.Minute, off)

	off, ok = timeline.ParseDeparture("2025-06-01T09:30:00+02:00")
	require.True(t, ok)
	assert.Equal(t, 9*time.Hour+30*time.Minute, off)

	_, ok = timeline.ParseDeparture("noon")
	assert.False(t, ok)

	assert.Equal(t, "07:45", timeline.FormatDeparture(7*time.Hour+45*time.Minute))
}
