package repo

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

// stopDoc is the JSONB shape of one element of days.stops. The travel
// segment is embedded inline; there is no separate segment table.
type stopDoc struct {
	ID          uuid.UUID   `json:"id"`
	PlaceName   string      `json:"place_name"`
	PlaceID     string      `json:"place_id,omitempty"`
	Location    coordDoc    `json:"location"`
	StaySeconds int         `json:"stay_s"`
	Mode        string      `json:"mode"`
	Segment     *segmentDoc `json:"segment,omitempty"`
	Description string      `json:"description,omitempty"`
	PhotoRef    string      `json:"photo_ref,omitempty"`
}

type coordDoc struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type segmentDoc struct {
	Mode            string     `json:"mode"`
	DurationSeconds int        `json:"duration_s"`
	DistanceKm      float64    `json:"distance_km"`
	Geometry        []coordDoc `json:"geometry,omitempty"`
	FromStopID      uuid.UUID  `json:"from_stop_id"`
}

func toStopDoc(s domain.Stop) stopDoc {
	d := stopDoc{
		ID:          s.ID,
		PlaceName:   s.PlaceName,
		PlaceID:     s.PlaceID,
		Location:    coordDoc(s.Location),
		StaySeconds: s.StaySeconds,
		Mode:        string(s.Mode),
		Description: s.Description,
		PhotoRef:    s.PhotoRef,
	}
	if s.Segment != nil {
		seg := &segmentDoc{
			Mode:            string(s.Segment.Mode),
			DurationSeconds: s.Segment.DurationSeconds,
			DistanceKm:      s.Segment.DistanceKm,
			FromStopID:      s.Segment.FromStopID,
		}
		for _, c := range s.Segment.Geometry {
			seg.Geometry = append(seg.Geometry, coordDoc(c))
		}
		d.Segment = seg
	}
	return d
}

func (d stopDoc) toDomain() (domain.Stop, error) {
	mode, err := domain.ParseTransportMode(d.Mode)
	if err != nil {
		return domain.Stop{}, err
	}
	s := domain.Stop{
		ID:          d.ID,
		PlaceName:   d.PlaceName,
		PlaceID:     d.PlaceID,
		Location:    domain.Coordinates(d.Location),
		StaySeconds: d.StaySeconds,
		Mode:        mode,
		Description: d.Description,
		PhotoRef:    d.PhotoRef,
	}
	if d.Segment != nil {
		segMode, err := domain.ParseTransportMode(d.Segment.Mode)
		if err != nil {
			return domain.Stop{}, err
		}
		seg := &domain.TravelSegment{
			Mode:            segMode,
			DurationSeconds: d.Segment.DurationSeconds,
			DistanceKm:      d.Segment.DistanceKm,
			FromStopID:      d.Segment.FromStopID,
		}
		for _, c := range d.Segment.Geometry {
			seg.Geometry = append(seg.Geometry, domain.Coordinates(c))
		}
		s.Segment = seg
	}
	return s, nil
}

// encodeStops validates stops as a day's stop list and marshals them for a
// JSONB column.
func encodeStops(stops []domain.Stop) (string, error) {
	if err := (domain.Day{Stops: stops}).Validate(); err != nil {
		return "", err
	}
	docs := make([]stopDoc, len(stops))
	for i, s := range stops {
		docs[i] = toStopDoc(s)
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("encode stops: %w", err)
	}
	return string(data), nil
}

func encodeStop(s domain.Stop) (string, error) {
	data, err := json.Marshal(toStopDoc(s))
	if err != nil {
		return "", fmt.Errorf("encode stop: %w", err)
	}
	return string(data), nil
}

// decodeStops unmarshals a JSONB stop array and checks the structural
// invariants of the result, so malformed rows never reach the service layer.
// A bad row is a store defect: errors match domain.ErrPersistence and never
// domain.ErrValidation.
func decodeStops(raw []byte) ([]domain.Stop, error) {
	var docs []stopDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode stops: %w: %v", domain.ErrPersistence, err)
	}
	stops := make([]domain.Stop, len(docs))
	for i, d := range docs {
		s, err := d.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decode stop %d: %w: %v", i, domain.ErrPersistence, err)
		}
		stops[i] = s
	}
	if err := (domain.Day{Stops: stops}).Validate(); err != nil {
		return nil, fmt.Errorf("decode stops: %w: %v", domain.ErrPersistence, err)
	}
	return stops, nil
}
