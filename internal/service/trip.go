// Package service contains the business logic for the itinerary planner.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-planner/internal/domain"
	"github.com/pkordes/itinerary-planner/internal/repo"
)

// TripService implements business logic for Trip operations.
type TripService struct {
	repo repo.TripRepo
}

// NewTripService constructs a TripService backed by the provided TripRepo.
func NewTripService(r repo.TripRepo) *TripService {
	return &TripService{repo: r}
}

// Create validates and persists a new trip. The repo allocates one empty
// day per date in the range.
func (s *TripService) Create(ctx context.Context, owner string, trip domain.Trip) (domain.Trip, error) {
	trip.OwnerID = owner
	trip, err := normalizeTrip(trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	created, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, storeErr("service.TripService.Create", err)
	}
	return created, nil
}

// GetByID returns a single trip owned by owner.
func (s *TripService) GetByID(ctx context.Context, owner string, id uuid.UUID) (domain.Trip, error) {
	t, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		return domain.Trip{}, storeErr("service.TripService.GetByID", err)
	}
	return t, nil
}

// ListPaged returns one page of the owner's trips and the total count.
func (s *TripService) ListPaged(ctx context.Context, owner string, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.repo.ListPaged(ctx, owner, p)
	if err != nil {
		return nil, 0, storeErr("service.TripService.ListPaged", err)
	}
	return trips, total, nil
}

// Update validates and updates an existing trip. Shrinking the date range
// over days that still hold stops fails with domain.ErrConflict unless
// upd.ConfirmDropStops is set, in which case those stops are lost.
func (s *TripService) Update(ctx context.Context, owner string, upd domain.TripUpdate) (domain.Trip, error) {
	upd.Trip.OwnerID = owner
	trip, err := normalizeTrip(upd.Trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	upd.Trip = trip
	updated, err := s.repo.Update(ctx, owner, upd)
	if err != nil {
		return domain.Trip{}, storeErr("service.TripService.Update", err)
	}
	return updated, nil
}

// Delete removes a trip together with its days and stops.
func (s *TripService) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return storeErr("service.TripService.Delete", err)
	}
	return nil
}

// normalizeTrip enforces business rules shared by Create and Update.
func normalizeTrip(t domain.Trip) (domain.Trip, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return t, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if t.OwnerID == "" {
		return t, fmt.Errorf("%w: owner is required", domain.ErrValidation)
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return t, fmt.Errorf("%w: start_date and end_date are required", domain.ErrValidation)
	}
	t.StartDate = domain.TruncateDate(t.StartDate)
	t.EndDate = domain.TruncateDate(t.EndDate)
	if t.EndDate.Before(t.StartDate) {
		return t, fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	if n := t.SpanDays(); n > domain.MaxTripDays {
		return t, fmt.Errorf("%w: trip spans %d days, at most %d allowed", domain.ErrValidation, n, domain.MaxTripDays)
	}
	countries, err := domain.NormalizeCountries(t.Countries)
	if err != nil {
		return t, err
	}
	t.Countries = countries
	t.CoverImage = strings.TrimSpace(t.CoverImage)
	return t, nil
}
