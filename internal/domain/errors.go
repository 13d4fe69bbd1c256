package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a write cannot be applied to the current state
// of a resource: the day changed underneath an append, or a trip date change
// would drop days that still hold stops.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// Resource-specific not-found errors. All of them satisfy
// errors.Is(err, ErrNotFound).
var (
	ErrTripNotFound    = fmt.Errorf("trip %w", ErrNotFound)
	ErrDayNotFound     = fmt.Errorf("day %w", ErrNotFound)
	ErrStopNotFound    = fmt.Errorf("stop %w", ErrNotFound)
	ErrArticleNotFound = fmt.Errorf("article %w", ErrNotFound)
)

// ErrInvalidPosition is returned when an insert or move index is out of
// bounds. It satisfies errors.Is(err, ErrValidation).
var ErrInvalidPosition = fmt.Errorf("%w: position out of range", ErrValidation)

// ErrRouteUnavailable means the routing backend failed or found no route.
// The itinerary editor recovers from it locally by storing a nil segment;
// only ChangeTransportMode surfaces it to the caller.
var ErrRouteUnavailable = errors.New("route unavailable")

// ErrPersistence wraps store failures that are not one of the sentinels
// above (connection refused, rejected write). The change is not committed.
// Handlers should map this to HTTP 503.
var ErrPersistence = errors.New("persistence error")
