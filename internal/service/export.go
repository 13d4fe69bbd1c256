package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-planner/internal/domain"
	"github.com/pkordes/itinerary-planner/internal/repo"
	"github.com/pkordes/itinerary-planner/internal/timeline"
)

// ExportService assembles a flat export of one trip's itinerary.
type ExportService struct {
	trips repo.TripRepo
	days  repo.DayRepo
}

// NewExportService constructs an ExportService backed by the provided repos.
func NewExportService(trips repo.TripRepo, days repo.DayRepo) *ExportService {
	return &ExportService{trips: trips, days: days}
}

// Export returns one ExportRow per stop of the trip, in day and visiting
// order, with projected start and end times.
// Days with no stops contribute one row with empty stop fields.
func (s *ExportService) Export(ctx context.Context, owner string, tripID uuid.UUID) ([]domain.ExportRow, error) {
	const op = "service.ExportService.Export"

	trip, err := s.trips.GetByID(ctx, owner, tripID)
	if err != nil {
		return nil, storeErr(op, err)
	}
	days, err := s.days.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, storeErr(op, err)
	}

	var rows []domain.ExportRow
	for _, d := range days {
		base := domain.ExportRow{
			TripID:        trip.ID.String(),
			TripTitle:     trip.Title,
			Date:          d.Key(),
			DepartureTime: d.DepartureTime,
		}
		if len(d.Stops) == 0 {
			rows = append(rows, base)
			continue
		}
		for i, ts := range timeline.Project(d) {
			row := base
			start, end := ts.Start, ts.End
			row.Position = i + 1
			row.PlaceName = ts.PlaceName
			row.Lat = ts.Location.Lat
			row.Lng = ts.Location.Lng
			row.Start = &start
			row.End = &end
			row.StaySeconds = ts.StaySeconds
			row.Mode = string(ts.Mode)
			row.TravelSeconds = ts.TravelSeconds
			if ts.Segment != nil {
				row.DistanceKm = ts.Segment.DistanceKm
			}
			row.Description = ts.Description
			rows = append(rows, row)
		}
	}
	return rows, nil
}
