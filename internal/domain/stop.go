package domain

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// DefaultStaySeconds is the stay duration given to a stop when the caller
// does not specify one.
const DefaultStaySeconds = 3600

// MaxStaySeconds caps a single stay at one week so projected times stay
// well inside time.Duration range.
const MaxStaySeconds = 7 * 24 * 60 * 60

// ValidateStay checks a stay duration in seconds.
func ValidateStay(seconds int) error {
	if seconds < 0 || seconds > MaxStaySeconds {
		return fmt.Errorf("%w: stay must be between 0 and %d seconds", ErrValidation, MaxStaySeconds)
	}
	return nil
}

// TransportMode is how the traveller reaches a stop from its predecessor.
type TransportMode string

const (
	ModeDriving TransportMode = "driving"
	ModeWalking TransportMode = "walking"
	ModeCycling TransportMode = "cycling"
)

// ParseTransportMode validates s. An empty string yields ModeDriving.
func ParseTransportMode(s string) (TransportMode, error) {
	switch m := TransportMode(s); m {
	case "":
		return ModeDriving, nil
	case ModeDriving, ModeWalking, ModeCycling:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown transport mode %q", ErrValidation, s)
	}
}

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate rejects NaN and out-of-range values.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: coordinates out of range (%v, %v)", ErrValidation, c.Lat, c.Lng)
	}
	return nil
}

// TravelSegment is the derived travel leg from the previous stop to the stop
// that carries it. It is always produced by a RouteService and never edited
// by hand.
type TravelSegment struct {
	Mode            TransportMode
	DurationSeconds int
	DistanceKm      float64
	Geometry        []Coordinates

	// FromStopID is the predecessor the segment was computed against.
	FromStopID uuid.UUID
}

// Stop is one place to visit. Segment is nil for the first stop of a day and
// for stops whose route could not be computed.
type Stop struct {
	ID          uuid.UUID
	PlaceName   string
	PlaceID     string // provider place reference, optional
	Location    Coordinates
	StaySeconds int
	Mode        TransportMode // selected mode for the incoming leg
	Segment     *TravelSegment
	Description string
	PhotoRef    string
}

// SegmentMatches reports whether the stop's segment was computed against
// pred with the stop's currently selected mode.
func (s Stop) SegmentMatches(pred Stop) bool {
	return s.Segment != nil && s.Segment.FromStopID == pred.ID && s.Segment.Mode == s.Mode
}

// StopPatch is a set of single-field updates applied to a stored stop.
// Nil fields are left unchanged. ClearSegment removes the segment and wins
// over Segment.
type StopPatch struct {
	StaySeconds  *int
	Mode         *TransportMode
	Segment      *TravelSegment
	ClearSegment bool
	Description  *string
}

// Apply returns s with the patch applied.
func (p StopPatch) Apply(s Stop) Stop {
	if p.StaySeconds != nil {
		s.StaySeconds = *p.StaySeconds
	}
	if p.Mode != nil {
		s.Mode = *p.Mode
	}
	if p.Segment != nil {
		seg := *p.Segment
		s.Segment = &seg
	}
	if p.ClearSegment {
		s.Segment = nil
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	return s
}

// IsEmpty reports whether the patch changes nothing.
func (p StopPatch) IsEmpty() bool {
	return p.StaySeconds == nil && p.Mode == nil && p.Segment == nil && !p.ClearSegment && p.Description == nil
}
