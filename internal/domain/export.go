package domain

import "time"

// ExportRow is a single row in a trip itinerary export.
// It is a flat, denormalized view: one row per stop, with day fields repeated
// for every stop on that day. Days with no stops yield one row with zero
// values for all stop fields.
type ExportRow struct {
	// Trip and day fields, repeated for every stop of the day.
	TripID        string
	TripTitle     string
	Date          string // "2006-01-02"
	DepartureTime string

	// Stop fields; zero values when the day has no stops.
	Position      int // 1-based; 0 when the day has no stops
	PlaceName     string
	Lat           float64
	Lng           float64
	Start         *time.Time
	End           *time.Time
	StaySeconds   int
	Mode          string
	TravelSeconds int
	DistanceKm    float64
	Description   string
}
