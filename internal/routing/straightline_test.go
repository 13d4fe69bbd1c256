package routing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/itinerary-planner/internal/domain"
	"github.com/pkordes/itinerary-planner/internal/routing"
)

var (
	paris  = domain.Coordinates{Lat: 48.8566, Lng: 2.3522}
	london = domain.Coordinates{Lat: 51.5074, Lng: -0.1278}
)

func TestHaversine(t *testing.T) {
	km := routing.Haversine(paris, london)

	assert.InDelta(t, 343.5, km, 2)
	assert.Zero(t, routing.Haversine(paris, paris))
}

func TestStraightLine_Route(t *testing.T) {
	r := routing.NewStraightLine()

	drive, err := r.Route(context.Background(), paris, london, domain.ModeDriving)
	require.NoError(t, err)
	walk, err := r.Route(context.Background(), paris, london, domain.ModeWalking)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeDriving, drive.Mode)
	assert.Greater(t, walk.DurationSeconds, drive.DurationSeconds)
	assert.Equal(t, drive.DistanceKm, walk.DistanceKm)
	assert.Equal(t, []domain.Coordinates{paris, london}, drive.Geometry)
	assert.Equal(t, uuid.Nil, drive.FromStopID, "routers never set the predecessor")
}

func TestStraightLine_UnknownMode(t *testing.T) {
	_, err := routing.NewStraightLine().Route(context.Background(), paris, london, "teleport")

	assert.ErrorIs(t, err, domain.ErrRouteUnavailable)
}

func TestStraightLine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := routing.NewStraightLine().Route(ctx, paris, london, domain.ModeDriving)

	assert.ErrorIs(t, err, domain.ErrRouteUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	r, err := routing.New(routing.Options{})
	require.NoError(t, err)
	assert.IsType(t, &routing.StraightLine{}, r)

	r, err = routing.New(routing.Options{Provider: routing.ProviderMapbox, MapboxToken: "pk.test"})
	require.NoError(t, err)
	assert.IsType(t, &routing.Mapbox{}, r)

	_, err = routing.New(routing.Options{Provider: routing.ProviderMapbox})
	assert.Error(t, err, "mapbox without token")

	_, err = routing.New(routing.Options{Provider: routing.ProviderGoogle})
	assert.Error(t, err, "google without key")

	r, err = routing.New(routing.Options{Provider: routing.ProviderGoogle, GoogleAPIKey: "AIza-test"})
	require.NoError(t, err)
	assert.IsType(t, &routing.Google{}, r)

	_, err = routing.New(routing.Options{Provider: "osrm"})
	assert.Error(t, err)
}
