package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/itinerary-planner/internal/domain"
	"github.com/pkordes/itinerary-planner/internal/repo"
	"github.com/pkordes/itinerary-planner/testutil"
)

func stopFixture(name string) domain.Stop {
	return domain.Stop{
		ID:          uuid.New(),
		PlaceName:   name,
		Location:    domain.Coordinates{Lat: 35.0, Lng: 135.7},
		StaySeconds: domain.DefaultStaySeconds,
		Mode:        domain.ModeDriving,
	}
}

func withSegment(s, pred domain.Stop) domain.Stop {
	s.Segment = &domain.TravelSegment{
		Mode:            s.Mode,
		DurationSeconds: 1200,
		DistanceKm:      14.2,
		Geometry:        []domain.Coordinates{pred.Location, s.Location},
		FromStopID:      pred.ID,
	}
	return s
}

// newDayFixture creates a trip and returns its repos and id. The trip covers
// 2025-06-01 .. 2025-06-03.
func newDayFixture(t *testing.T) (repo.DayRepo, uuid.UUID) {
	t.Helper()
	tx := testutil.NewTx(t)
	trip, err := repo.NewTripRepo(tx).Create(context.Background(), tripFixture())
	require.NoError(t, err)
	return repo.NewDayRepo(tx), trip.ID
}

func TestDayRepo_ReplaceStops_RoundTrip(t *testing.T) {
	days, tripID := newDayFixture(t)
	ctx := context.Background()
	d := date("2025-06-01")

	a := stopFixture("Fushimi Inari")
	b := withSegment(stopFixture("Kiyomizu-dera"), a)
	b.Mode = domain.ModeWalking
	b.Segment.Mode = domain.ModeWalking
	b.Description = "sunset"

	require.NoError(t, days.ReplaceStops(ctx, tripID, d, []domain.Stop{a, b}))

	got, err := days.GetDay(ctx, tripID, d)
	require.NoError(t, err)
	require.Len(t, got.Stops, 2)
	assert.Equal(t, a.ID, got.Stops[0].ID)
	assert.Nil(t, got.Stops[0].Segment)
	require.NotNil(t, got.Stops[1].Segment)
	assert.Equal(t, a.ID, got.Stops[1].Segment.FromStopID)
	assert.Equal(t, domain.ModeWalking, got.Stops[1].Segment.Mode)
	assert.Len(t, got.Stops[1].Segment.Geometry, 2)
	assert.Equal(t, "sunset", got.Stops[1].Description)
}

func TestDayRepo_ReplaceStops_RejectsFirstStopSegment(t *testing.T) {
	days, tripID := newDayFixture(t)
	a := stopFixture("A")
	b := withSegment(stopFixture("B"), a)

	err := days.ReplaceStops(context.Background(), tripID, date("2025-06-01"), []domain.Stop{b})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDayRepo_GetDay_NotFound(t *testing.T) {
	days, tripID := newDayFixture(t)

	_, err := days.GetDay(context.Background(), tripID, date("2025-07-01"))

	assert.ErrorIs(t, err, domain.ErrDayNotFound)
}

func TestDayRepo_AppendStop_GuardsLastStop(t *testing.T) {
	days, tripID := newDayFixture(t)
	ctx := context.Background()
	d := date("2025-06-02")

	a := stopFixture("A")
	require.NoError(t, days.AppendStop(ctx, tripID, d, uuid.Nil, a))

	b := withSegment(stopFixture("B"), a)
	err := days.AppendStop(ctx, tripID, d, uuid.Nil, b)
	assert.ErrorIs(t, err, domain.ErrConflict, "day is no longer empty")

	require.NoError(t, days.AppendStop(ctx, tripID, d, a.ID, b))

	last, err := days.GetLastStop(ctx, tripID, d)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, b.ID, last.ID)

	err = days.AppendStop(ctx, tripID, date("2025-09-09"), uuid.Nil, stopFixture("C"))
	assert.ErrorIs(t, err, domain.ErrDayNotFound)
}

func TestDayRepo_GetLastStop_EmptyDay(t *testing.T) {
	days, tripID := newDayFixture(t)

	last, err := days.GetLastStop(context.Background(), tripID, date("2025-06-01"))

	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestDayRepo_DeleteStop(t *testing.T) {
	days, tripID := newDayFixture(t)
	ctx := context.Background()
	d := date("2025-06-01")
	a, b, c := stopFixture("A"), stopFixture("B"), stopFixture("C")
	require.NoError(t, days.ReplaceStops(ctx, tripID, d, []domain.Stop{a, b, c}))

	require.NoError(t, days.DeleteStop(ctx, tripID, d, c.ID))

	got, err := days.GetDay(ctx, tripID, d)
	require.NoError(t, err)
	require.Len(t, got.Stops, 2)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, []uuid.UUID{got.Stops[0].ID, got.Stops[1].ID})

	assert.ErrorIs(t, days.DeleteStop(ctx, tripID, d, c.ID), domain.ErrStopNotFound)
	assert.ErrorIs(t, days.DeleteStop(ctx, tripID, date("2025-09-09"), a.ID), domain.ErrDayNotFound)
}

func TestDayRepo_UpdateStop(t *testing.T) {
	days, tripID := newDayFixture(t)
	ctx := context.Background()
	d := date("2025-06-01")
	a, b := stopFixture("A"), stopFixture("B")
	require.NoError(t, days.ReplaceStops(ctx, tripID, d, []domain.Stop{a, b}))

	stay := 5400
	require.NoError(t, days.UpdateStop(ctx, tripID, d, b.ID, domain.StopPatch{StaySeconds: &stay}))

	got, err := days.GetDay(ctx, tripID, d)
	require.NoError(t, err)
	assert.Equal(t, 5400, got.Stops[1].StaySeconds)
	assert.Equal(t, domain.DefaultStaySeconds, got.Stops[0].StaySeconds)

	err = days.UpdateStop(ctx, tripID, d, uuid.New(), domain.StopPatch{StaySeconds: &stay})
	assert.ErrorIs(t, err, domain.ErrStopNotFound)
}

func TestDayRepo_ReplaceDays_AllOrNothing(t *testing.T) {
	days, tripID := newDayFixture(t)
	ctx := context.Background()
	a, b := stopFixture("A"), stopFixture("B")
	require.NoError(t, days.ReplaceStops(ctx, tripID, date("2025-06-01"), []domain.Stop{a}))

	err := days.ReplaceDays(ctx, tripID, []domain.Day{
		{Date: date("2025-06-01")},
		{Date: date("2025-12-25"), Stops: []domain.Stop{a, b}},
	})
	assert.ErrorIs(t, err, domain.ErrDayNotFound)

	got, err := days.GetDay(ctx, tripID, date("2025-06-01"))
	require.NoError(t, err)
	assert.Len(t, got.Stops, 1, "first write rolled back with the second")

	require.NoError(t, days.ReplaceDays(ctx, tripID, []domain.Day{
		{Date: date("2025-06-01")},
		{Date: date("2025-06-02"), Stops: []domain.Stop{a}},
	}))
	moved, err := days.GetDay(ctx, tripID, date("2025-06-02"))
	require.NoError(t, err)
	assert.Equal(t, a.ID, moved.Stops[0].ID)
}

func TestDayRepo_SetDepartureTime(t *testing.T) {
	days, tripID := newDayFixture(t)
	ctx := context.Background()

	require.NoError(t, days.SetDepartureTime(ctx, tripID, date("2025-06-03"), "06:30"))

	got, err := days.GetDay(ctx, tripID, date("2025-06-03"))
	require.NoError(t, err)
	assert.Equal(t, "06:30", got.DepartureTime)

	assert.ErrorIs(t, days.SetDepartureTime(ctx, tripID, date("2026-01-01"), "06:30"), domain.ErrDayNotFound)
}
