// Package timeline projects a Day onto per-stop start and end times.
//
// The projection is pure: it reads the day's departure time, each stop's
// stay and each incoming segment's duration, and holds no state. Any change
// upstream invalidates every later time, so callers recompute on every read.
package timeline

import (
	"iter"
	"strings"
	"time"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

var clockLayouts = []string{"15:04", "15:04:05"}

// ParseDeparture parses a wall-clock departure time and returns the offset
// from midnight. It accepts "15:04", "15:04:05" and RFC 3339 timestamps
// (only the clock part is kept).
func ParseDeparture(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return clockOffset(t), true
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return clockOffset(t), true
	}
	return 0, false
}

// FormatDeparture renders a departure offset in the canonical "15:04" form.
func FormatDeparture(offset time.Duration) string {
	return time.Time{}.Add(offset).Format("15:04")
}

func clockOffset(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// departureOf returns the day's departure instant, falling back to
// domain.DefaultDepartureTime when the stored value is empty or invalid.
func departureOf(day domain.Day) time.Time {
	offset, ok := ParseDeparture(day.DepartureTime)
	if !ok {
		offset, _ = ParseDeparture(domain.DefaultDepartureTime)
	}
	return domain.TruncateDate(day.Date).Add(offset)
}

// Project yields a TimedStop for every stop of day, in order. A missing
// segment on a non-first stop counts as zero travel so the projection never
// blocks on a pending or failed route. The sequence can be ranged over any
// number of times.
func Project(day domain.Day) iter.Seq2[int, domain.TimedStop] {
	return func(yield func(int, domain.TimedStop) bool) {
		cursor := departureOf(day)
		for i, s := range day.Stops {
			travel := 0
			if i > 0 && s.Segment != nil {
				travel = s.Segment.DurationSeconds
			}
			start := cursor.Add(time.Duration(travel) * time.Second)
			end := start.Add(time.Duration(s.StaySeconds) * time.Second)
			ts := domain.TimedStop{
				Stop:          s,
				Position:      i,
				TravelSeconds: travel,
				Start:         start,
				End:           end,
			}
			if !yield(i, ts) {
				return
			}
			cursor = end
		}
	}
}

// Compute collects Project into a slice.
func Compute(day domain.Day) []domain.TimedStop {
	out := make([]domain.TimedStop, 0, len(day.Stops))
	for _, ts := range Project(day) {
		out = append(out, ts)
	}
	return out
}

// EndOfDay returns when the last stop of the day ends, or the departure time
// when the day has no stops.
func EndOfDay(day domain.Day) time.Time {
	stops := Compute(day)
	if len(stops) == 0 {
		return departureOf(day)
	}
	return stops[len(stops)-1].End
}
