// Package routing computes travel segments between two coordinates.
//
// Every backend implements Router. Backends never set
// TravelSegment.FromStopID; the caller knows which stop the origin belongs to.
package routing

import (
	"context"
	"fmt"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

// Router returns the travel segment from origin to dest for mode.
// Any failure, including "no route found", satisfies
// errors.Is(err, domain.ErrRouteUnavailable).
type Router interface {
	Route(ctx context.Context, origin, dest domain.Coordinates, mode domain.TransportMode) (*domain.TravelSegment, error)
}

// RouterFunc adapts an ordinary function to the Router interface.
type RouterFunc func(ctx context.Context, origin, dest domain.Coordinates, mode domain.TransportMode) (*domain.TravelSegment, error)

// Route calls f.
func (f RouterFunc) Route(ctx context.Context, origin, dest domain.Coordinates, mode domain.TransportMode) (*domain.TravelSegment, error) {
	return f(ctx, origin, dest, mode)
}

// unavailable wraps err so that it matches domain.ErrRouteUnavailable while
// keeping the provider detail in the message.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrRouteUnavailable, err)
}
