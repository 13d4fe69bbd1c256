package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/itinerary-planner/internal/domain"
	"github.com/pkordes/itinerary-planner/internal/repo"
	"github.com/pkordes/itinerary-planner/internal/service"
)

// mockArticleRepo records created articles in memory.
type mockArticleRepo struct {
	created []domain.Article
	err     error
	del     func(ctx context.Context, author string, id uuid.UUID) error
}

var _ repo.ArticleRepo = (*mockArticleRepo)(nil)

func (m *mockArticleRepo) Create(_ context.Context, a domain.Article) (domain.Article, error) {
	if m.err != nil {
		return domain.Article{}, m.err
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.created = append(m.created, a)
	return a, nil
}

func (m *mockArticleRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Article, error) {
	for _, a := range m.created {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Article{}, domain.ErrArticleNotFound
}

func (m *mockArticleRepo) ListPaged(_ context.Context, _ domain.PaginationParams) ([]domain.Article, int64, error) {
	return m.created, int64(len(m.created)), nil
}

func (m *mockArticleRepo) Delete(ctx context.Context, author string, id uuid.UUID) error {
	if m.del != nil {
		return m.del(ctx, author, id)
	}
	return nil
}

func TestArticleService_Publish_SnapshotsTimeline(t *testing.T) {
	tripID := uuid.New()
	days := newMemDayRepo(tripID, day1, day2)
	a := place("Shrine", 1)
	b := place("Market", 2)
	b.Segment = &domain.TravelSegment{Mode: domain.ModeWalking, DurationSeconds: 1800, DistanceKm: 2.5, FromStopID: a.ID}
	b.Mode = domain.ModeWalking
	days.put(tripID, day1, a, b)

	articles := &mockArticleRepo{}
	svc := service.NewArticleService(&mockTripRepo{}, days, articles)

	got, err := svc.Publish(context.Background(), owner, tripID, "  ", "Two great days.")
	require.NoError(t, err)

	assert.Equal(t, validTrip().Title, got.Title, "empty title falls back to the trip title")
	assert.Equal(t, owner, got.AuthorID)
	require.Len(t, got.Snapshot.Days, 2)

	first := got.Snapshot.Days[0]
	assert.Equal(t, "2025-06-01", first.Date)
	require.Len(t, first.Stops, 2)
	assert.Equal(t, "08:00", first.Stops[0].Start)
	assert.Equal(t, "09:00", first.Stops[0].End)
	assert.Equal(t, "09:30", first.Stops[1].Start)
	assert.Equal(t, domain.ModeWalking, first.Stops[1].Mode)
	assert.Equal(t, 2.5, first.Stops[1].DistanceKm)
	assert.NotNil(t, got.Snapshot.Days[1].Stops, "empty days keep an empty stop list")
	assert.Empty(t, got.Snapshot.Days[1].Stops)
}

func TestArticleService_Publish_IsUnaffectedByLaterEdits(t *testing.T) {
	tripID := uuid.New()
	days := newMemDayRepo(tripID, day1)
	days.put(tripID, day1, place("A", 1))
	articles := &mockArticleRepo{}
	svc := service.NewArticleService(&mockTripRepo{}, days, articles)

	got, err := svc.Publish(context.Background(), owner, tripID, "Diary", "")
	require.NoError(t, err)

	days.put(tripID, day1)

	stored, err := svc.Get(context.Background(), got.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Snapshot.Days[0].Stops, 1)
}

func TestArticleService_Publish_ForeignTrip(t *testing.T) {
	trips := &mockTripRepo{
		getByID: func(_ context.Context, _ string, _ uuid.UUID) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrTripNotFound
		},
	}
	articles := &mockArticleRepo{}
	svc := service.NewArticleService(trips, newMemDayRepo(uuid.New()), articles)

	_, err := svc.Publish(context.Background(), "intruder", uuid.New(), "x", "")

	assert.ErrorIs(t, err, domain.ErrTripNotFound)
	assert.Empty(t, articles.created)
}

func TestArticleService_Publish_RepoError(t *testing.T) {
	tripID := uuid.New()
	svc := service.NewArticleService(&mockTripRepo{}, newMemDayRepo(tripID, day1), &mockArticleRepo{err: errors.New("disk full")})

	_, err := svc.Publish(context.Background(), owner, tripID, "x", "")

	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestArticleService_Get_NotFound(t *testing.T) {
	svc := service.NewArticleService(&mockTripRepo{}, newMemDayRepo(uuid.New()), &mockArticleRepo{})

	_, err := svc.Get(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrArticleNotFound)
}

func TestArticleService_Delete_OtherAuthor(t *testing.T) {
	articles := &mockArticleRepo{
		del: func(_ context.Context, author string, _ uuid.UUID) error {
			if author != owner {
				return domain.ErrArticleNotFound
			}
			return nil
		},
	}
	svc := service.NewArticleService(&mockTripRepo{}, newMemDayRepo(uuid.New()), articles)

	assert.ErrorIs(t, svc.Delete(context.Background(), "someone-else", uuid.New()), domain.ErrNotFound)
	assert.NoError(t, svc.Delete(context.Background(), owner, uuid.New()))
}
