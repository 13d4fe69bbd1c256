package routing

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

// Google calls the Google Maps Directions API.
type Google struct {
	client *maps.Client
}

// NewGoogle builds a Google router. baseURL overrides the API host and is
// only set in tests.
func NewGoogle(apiKey, baseURL string) (*Google, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}
	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("routing.NewGoogle: %w", err)
	}
	return &Google{client: c}, nil
}

func googleMode(mode domain.TransportMode) (maps.Mode, bool) {
	switch mode {
	case domain.ModeDriving:
		return maps.TravelModeDriving, true
	case domain.ModeWalking:
		return maps.TravelModeWalking, true
	case domain.ModeCycling:
		return maps.TravelModeBicycling, true
	default:
		return "", false
	}
}

func (g *Google) Route(ctx context.Context, origin, dest domain.Coordinates, mode domain.TransportMode) (*domain.TravelSegment, error) {
	gm, ok := googleMode(mode)
	if !ok {
		return nil, unavailable("routing.Google.Route", fmt.Errorf("%w: mode %q", domain.ErrValidation, mode))
	}

	req := &maps.DirectionsRequest{
		Origin:      latLng(origin),
		Destination: latLng(dest),
		Mode:        gm,
	}
	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return nil, unavailable("routing.Google.Route", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, unavailable("routing.Google.Route", fmt.Errorf("no route"))
	}

	route := routes[0]
	seg := &domain.TravelSegment{Mode: mode}
	for _, leg := range route.Legs {
		seg.DurationSeconds += int(leg.Duration.Seconds())
		seg.DistanceKm += float64(leg.Distance.Meters) / 1000
	}

	points, err := route.OverviewPolyline.Decode()
	if err != nil {
		return nil, unavailable("routing.Google.Route", fmt.Errorf("decode polyline: %w", err))
	}
	seg.Geometry = make([]domain.Coordinates, len(points))
	for i, p := range points {
		seg.Geometry[i] = domain.Coordinates{Lat: p.Lat, Lng: p.Lng}
	}
	return seg, nil
}

func latLng(c domain.Coordinates) string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lng)
}
