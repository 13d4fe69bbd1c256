package routing

import (
	"context"
	"math"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

const earthRadiusKm = 6371.0

// detourFactor stretches the great-circle distance towards a typical road
// distance.
const detourFactor = 1.3

var speedKmh = map[domain.TransportMode]float64{
	domain.ModeDriving: 60,
	domain.ModeWalking: 5,
	domain.ModeCycling: 15,
}

// StraightLine estimates segments from the great-circle distance and a fixed
// speed per mode. It needs no network and never fails for valid input, which
// makes it the default backend for local development.
type StraightLine struct{}

// NewStraightLine returns the offline router.
func NewStraightLine() *StraightLine {
	return &StraightLine{}
}

func (StraightLine) Route(ctx context.Context, origin, dest domain.Coordinates, mode domain.TransportMode) (*domain.TravelSegment, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("routing.StraightLine.Route", err)
	}
	speed, ok := speedKmh[mode]
	if !ok {
		return nil, unavailable("routing.StraightLine.Route", domain.ErrValidation)
	}

	km := Haversine(origin, dest) * detourFactor
	seconds := int(math.Round(km / speed * 3600))

	return &domain.TravelSegment{
		Mode:            mode,
		DurationSeconds: seconds,
		DistanceKm:      math.Round(km*100) / 100,
		Geometry:        []domain.Coordinates{origin, dest},
	}, nil
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b domain.Coordinates) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
