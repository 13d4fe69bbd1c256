package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-planner/internal/domain"
	"github.com/pkordes/itinerary-planner/internal/repo"
	"github.com/pkordes/itinerary-planner/internal/timeline"
)

// ArticleService publishes trips as read-only articles. An article carries
// a snapshot of the itinerary and its timeline at publish time, so later
// edits to the trip never change what readers see.
type ArticleService struct {
	trips    repo.TripRepo
	days     repo.DayRepo
	articles repo.ArticleRepo
}

// NewArticleService constructs an ArticleService.
func NewArticleService(trips repo.TripRepo, days repo.DayRepo, articles repo.ArticleRepo) *ArticleService {
	return &ArticleService{trips: trips, days: days, articles: articles}
}

// Publish snapshots an owned trip into a new article.
func (s *ArticleService) Publish(ctx context.Context, owner string, tripID uuid.UUID, title, body string) (domain.Article, error) {
	const op = "service.ArticleService.Publish"

	trip, err := s.trips.GetByID(ctx, owner, tripID)
	if err != nil {
		return domain.Article{}, storeErr(op, err)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = trip.Title
	}
	days, err := s.days.ListByTrip(ctx, tripID)
	if err != nil {
		return domain.Article{}, storeErr(op, err)
	}

	a, err := s.articles.Create(ctx, domain.Article{
		TripID:   tripID,
		AuthorID: owner,
		Title:    title,
		Body:     body,
		Snapshot: Snapshot(trip, days),
	})
	if err != nil {
		return domain.Article{}, storeErr(op, err)
	}
	return a, nil
}

// Get returns a published article. Articles are public.
func (s *ArticleService) Get(ctx context.Context, id uuid.UUID) (domain.Article, error) {
	a, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return domain.Article{}, storeErr("service.ArticleService.Get", err)
	}
	return a, nil
}

// ListPaged returns one page of articles, newest first.
func (s *ArticleService) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Article, int64, error) {
	list, total, err := s.articles.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, storeErr("service.ArticleService.ListPaged", err)
	}
	return list, total, nil
}

// Delete removes an article written by author.
func (s *ArticleService) Delete(ctx context.Context, author string, id uuid.UUID) error {
	if err := s.articles.Delete(ctx, author, id); err != nil {
		return storeErr("service.ArticleService.Delete", err)
	}
	return nil
}

// Snapshot copies trip and days into an article snapshot with the
// timeline already computed.
func Snapshot(trip domain.Trip, days []domain.Day) domain.ArticleSnapshot {
	snap := domain.ArticleSnapshot{
		TripTitle: trip.Title,
		Countries: trip.Countries,
		Days:      make([]domain.ArticleDay, 0, len(days)),
	}
	for _, d := range days {
		ad := domain.ArticleDay{
			Date:          d.Key(),
			DepartureTime: d.DepartureTime,
			Stops:         []domain.ArticleStop{},
		}
		for _, ts := range timeline.Project(d) {
			st := domain.ArticleStop{
				PlaceName:     ts.PlaceName,
				Location:      ts.Location,
				Start:         ts.Start.Format("15:04"),
				End:           ts.End.Format("15:04"),
				TravelSeconds: ts.TravelSeconds,
				Description:   ts.Description,
				PhotoRef:      ts.PhotoRef,
			}
			if ts.Segment != nil {
				st.Mode = ts.Segment.Mode
				st.DistanceKm = ts.Segment.DistanceKm
			}
			ad.Stops = append(ad.Stops, st)
		}
		snap.Days = append(snap.Days, ad)
	}
	return snap
}
