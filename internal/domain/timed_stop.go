package domain

import "time"

// TimedStop is a Stop annotated with its computed start and end wall-clock
// times. It is never persisted.
type TimedStop struct {
	Stop
	Position      int
	TravelSeconds int // incoming travel counted by the timeline; 0 when unknown
	Start         time.Time
	End           time.Time
}
