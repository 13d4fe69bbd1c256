// Package domain contains the core data types for the itinerary planner.
// This package has no external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the ISO calendar date format used for day identifiers.
const DateLayout = "2006-01-02"

// MaxTripDays caps how many days a single trip may span.
const MaxTripDays = 90

// Trip is the top-level aggregate; it owns one Day per calendar date
// between StartDate and EndDate inclusive.
type Trip struct {
	ID         uuid.UUID
	OwnerID    string
	Title      string
	StartDate  time.Time
	EndDate    time.Time
	Countries  []string // lowercase slugs, e.g. "japan", "south-korea"
	CoverImage string   // opaque image reference; empty when unset
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Dates returns every calendar date covered by the trip, in order.
func (t Trip) Dates() []time.Time {
	return DateRange(t.StartDate, t.EndDate)
}

// SpanDays is the number of calendar days from StartDate to EndDate
// inclusive, without materialising them. Both dates must be truncated. Spans
// beyond time.Duration range saturate, which still exceeds MaxTripDays.
func (t Trip) SpanDays() int {
	if t.EndDate.Before(t.StartDate) {
		return 0
	}
	return int(t.EndDate.Sub(t.StartDate)/(24*time.Hour)) + 1
}

// TripUpdate carries a trip edit plus the caller's acknowledgement that days
// falling outside the new date range may be deleted together with their stops.
type TripUpdate struct {
	Trip             Trip
	ConfirmDropStops bool
}

// DateRange returns every calendar date from start to end inclusive, each
// normalised to midnight UTC. It returns nil when end is before start.
func DateRange(start, end time.Time) []time.Time {
	start, end = TruncateDate(start), TruncateDate(end)
	if end.Before(start) {
		return nil
	}
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// TruncateDate drops the clock part of t and returns its calendar date at
// midnight UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date ("2006-01-02").
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
