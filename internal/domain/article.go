package domain

import (
	"time"

	"github.com/google/uuid"
)

// Article is a published, read-only snapshot of a trip itinerary.
// Editing the trip afterwards does not change the article.
type Article struct {
	ID        uuid.UUID
	TripID    uuid.UUID
	AuthorID  string
	Title     string
	Body      string
	Snapshot  ArticleSnapshot
	CreatedAt time.Time
}

// ArticleSnapshot is the itinerary copied at publish time, with the timeline
// already computed so readers see the times the author saw.
type ArticleSnapshot struct {
	TripTitle string       `json:"trip_title"`
	Countries []string     `json:"countries,omitempty"`
	Days      []ArticleDay `json:"days"`
}

// ArticleDay is one day of an ArticleSnapshot.
type ArticleDay struct {
	Date          string        `json:"date"`
	DepartureTime string        `json:"departure_time"`
	Stops         []ArticleStop `json:"stops"`
}

// ArticleStop is one stop of an ArticleDay.
type ArticleStop struct {
	PlaceName     string        `json:"place_name"`
	Location      Coordinates   `json:"location"`
	Start         string        `json:"start"`
	End           string        `json:"end"`
	Mode          TransportMode `json:"mode,omitempty"`
	TravelSeconds int           `json:"travel_seconds"`
	DistanceKm    float64       `json:"distance_km"`
	Description   string        `json:"description,omitempty"`
	PhotoRef      string        `json:"photo_ref,omitempty"`
}
