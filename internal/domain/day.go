package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultDepartureTime is the wall-clock departure assigned to new days.
const DefaultDepartureTime = "08:00"

// Day is one calendar date of a trip. Stops are in visiting order: the slice
// is a total order with no gaps, and only Stops[0] lacks a travel segment
// once the day is consistent.
type Day struct {
	TripID        uuid.UUID
	Date          time.Time // midnight UTC
	DepartureTime string    // "15:04"; see timeline.ParseDeparture
	Stops         []Stop
	UpdatedAt     time.Time
}

// Key returns the ISO date identifying the day within its trip.
func (d Day) Key() string {
	return d.Date.Format(DateLayout)
}

// Clone returns a deep copy of d so that callers can mutate stops without
// aliasing the original slice or segments.
func (d Day) Clone() Day {
	out := d
	out.Stops = make([]Stop, len(d.Stops))
	for i, s := range d.Stops {
		if s.Segment != nil {
			seg := *s.Segment
			seg.Geometry = append([]Coordinates(nil), s.Segment.Geometry...)
			s.Segment = &seg
		}
		out.Stops[i] = s
	}
	return out
}

// IndexOf returns the position of the stop with the given id, or -1.
func (d Day) IndexOf(id uuid.UUID) int {
	for i, s := range d.Stops {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// LastStop returns the final stop of the day, or nil when the day is empty.
func (d Day) LastStop() *Stop {
	if len(d.Stops) == 0 {
		return nil
	}
	s := d.Stops[len(d.Stops)-1]
	return &s
}

// Neighbors returns copies of the stops immediately before and after index i.
// Either result is nil at the edges of the day.
func (d Day) Neighbors(i int) (pred, succ *Stop) {
	if i > 0 && i-1 < len(d.Stops) {
		p := d.Stops[i-1]
		pred = &p
	}
	if i >= 0 && i+1 < len(d.Stops) {
		s := d.Stops[i+1]
		succ = &s
	}
	return pred, succ
}

// InsertStop inserts stop at position. Valid positions are 0..len(Stops).
func (d *Day) InsertStop(stop Stop, position int) error {
	if position < 0 || position > len(d.Stops) {
		return fmt.Errorf("insert at %d of %d: %w", position, len(d.Stops), ErrInvalidPosition)
	}
	d.Stops = append(d.Stops, Stop{})
	copy(d.Stops[position+1:], d.Stops[position:])
	d.Stops[position] = stop
	return nil
}

// AppendStop inserts stop at the end of the day.
func (d *Day) AppendStop(stop Stop) {
	d.Stops = append(d.Stops, stop)
}

// RemoveStop removes the stop with the given id and returns it together
// with the index it occupied.
func (d *Day) RemoveStop(id uuid.UUID) (Stop, int, error) {
	i := d.IndexOf(id)
	if i < 0 {
		return Stop{}, -1, fmt.Errorf("remove %s: %w", id, ErrStopNotFound)
	}
	removed := d.Stops[i]
	d.Stops = append(d.Stops[:i], d.Stops[i+1:]...)
	return removed, i, nil
}

// MoveStop moves the stop at fromIndex in from to toIndex in to. When from
// and to are the same day the move is a single splice-out/splice-in and
// toIndex refers to the list after removal. Segments are left untouched.
func MoveStop(from *Day, fromIndex int, to *Day, toIndex int) error {
	if fromIndex < 0 || fromIndex >= len(from.Stops) {
		return fmt.Errorf("move from %d of %d: %w", fromIndex, len(from.Stops), ErrInvalidPosition)
	}
	limit := len(to.Stops)
	if from == to {
		limit--
	}
	if toIndex < 0 || toIndex > limit {
		return fmt.Errorf("move to %d of %d: %w", toIndex, limit, ErrInvalidPosition)
	}

	stop := from.Stops[fromIndex]
	from.Stops = append(from.Stops[:fromIndex], from.Stops[fromIndex+1:]...)
	// Cannot fail: toIndex was checked against the post-removal length.
	return to.InsertStop(stop, toIndex)
}

// ClearFirstSegment enforces the first-stop rule.
func (d *Day) ClearFirstSegment() {
	if len(d.Stops) > 0 {
		d.Stops[0].Segment = nil
	}
}

// StaleIndices returns the positions (all > 0) whose segment does not match
// the current predecessor and mode, including stops with no segment yet.
func (d Day) StaleIndices() []int {
	var out []int
	for i := 1; i < len(d.Stops); i++ {
		if !d.Stops[i].SegmentMatches(d.Stops[i-1]) {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks the structural invariants a stored day must satisfy.
// Missing segments on non-first stops are allowed: they represent routes
// that could not be computed.
func (d Day) Validate() error {
	seen := make(map[uuid.UUID]struct{}, len(d.Stops))
	for i, s := range d.Stops {
		if s.ID == uuid.Nil {
			return fmt.Errorf("%w: stop %d has no id", ErrValidation, i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: duplicate stop %s", ErrValidation, s.ID)
		}
		seen[s.ID] = struct{}{}
		if err := ValidateStay(s.StaySeconds); err != nil {
			return fmt.Errorf("stop %s: %w", s.ID, err)
		}
		if i == 0 && s.Segment != nil {
			return fmt.Errorf("%w: first stop %s carries a travel segment", ErrValidation, s.ID)
		}
	}
	return nil
}
