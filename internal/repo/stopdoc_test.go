package repo

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

func TestDecodeStops_ValidatesAtBoundary(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name string
		raw  string
	}{
		{"not an array", `{"id":"x"}`},
		{"unknown mode", `[{"id":"` + id.String() + `","place_name":"A","mode":"rocket"}]`},
		{"first stop with segment", `[{"id":"` + id.String() + `","place_name":"A","mode":"driving","segment":{"mode":"driving","duration_s":60}}]`},
		{"missing id", `[{"place_name":"A","mode":"driving"}]`},
		{"stay too long", `[{"id":"` + id.String() + `","place_name":"A","mode":"driving","stay_s":10000000000}]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeStops([]byte(tc.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrPersistence)
			assert.NotErrorIs(t, err, domain.ErrValidation, "stored rows are not the caller's fault")
		})
	}
}

func TestEncodeDecodeStops(t *testing.T) {
	a := domain.Stop{ID: uuid.New(), PlaceName: "A", Mode: domain.ModeDriving, StaySeconds: 60}
	b := domain.Stop{
		ID:          uuid.New(),
		PlaceName:   "B",
		Mode:        domain.ModeCycling,
		StaySeconds: 120,
		Segment: &domain.TravelSegment{
			Mode:            domain.ModeCycling,
			DurationSeconds: 300,
			DistanceKm:      1.5,
			Geometry:        []domain.Coordinates{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}},
			FromStopID:      a.ID,
		},
	}

	raw, err := encodeStops([]domain.Stop{a, b})
	require.NoError(t, err)
	got, err := decodeStops([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, []domain.Stop{a, b}, got)
}

func TestDecodeStops_EmptyModeDefaultsToDriving(t *testing.T) {
	got, err := decodeStops([]byte(`[{"id":"` + uuid.NewString() + `","place_name":"A"}]`))

	require.NoError(t, err)
	assert.Equal(t, domain.ModeDriving, got[0].Mode)
}
