// Package handler implements the HTTP handlers for the itinerary planner API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, day.go, ...) but share the same Server struct so
// they can reach its dependencies. Routes wires them into a chi router.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/itinerary-planner/internal/domain"
	"github.com/pkordes/itinerary-planner/internal/service"
)

// TripServicer defines the trip operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, owner string, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, owner string, id uuid.UUID) (domain.Trip, error)
	ListPaged(ctx context.Context, owner string, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Update(ctx context.Context, owner string, upd domain.TripUpdate) (domain.Trip, error)
	Delete(ctx context.Context, owner string, id uuid.UUID) error
}

// ItineraryServicer is the day and stop editing surface.
type ItineraryServicer interface {
	GetDay(ctx context.Context, owner string, tripID uuid.UUID, date time.Time) (domain.Day, error)
	ListDays(ctx context.Context, owner string, tripID uuid.UUID) ([]domain.Day, error)
	AddStop(ctx context.Context, owner string, tripID uuid.UUID, date time.Time, in service.NewStop) (domain.Stop, error)
	DeleteStop(ctx context.Context, owner string, tripID uuid.UUID, date time.Time, stopID uuid.UUID) error
	ReorderStops(ctx context.Context, owner string, tripID uuid.UUID, orders []service.DayOrder) ([]domain.Day, error)
	MoveStop(ctx context.Context, owner string, tripID uuid.UUID, fromDate time.Time, fromIndex int, toDate time.Time, toIndex int) ([]domain.Day, error)
	ChangeTransportMode(ctx context.Context, owner string, tripID uuid.UUID, date time.Time, stopID uuid.UUID, mode domain.TransportMode) error
	UpdateStayDuration(ctx context.Context, owner string, tripID uuid.UUID, date time.Time, stopID uuid.UUID, seconds int) error
	UpdateStopDetails(ctx context.Context, owner string, tripID uuid.UUID, date time.Time, stopID uuid.UUID, description string) error
	UpdateDepartureTime(ctx context.Context, owner string, tripID uuid.UUID, date time.Time, departure string) (string, error)
}

// ArticleServicer publishes and serves itinerary articles.
type ArticleServicer interface {
	Publish(ctx context.Context, owner string, tripID uuid.UUID, title, body string) (domain.Article, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Article, error)
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Article, int64, error)
	Delete(ctx context.Context, author string, id uuid.UUID) error
}

// ExportServicer defines the export operations the handler depends on.
type ExportServicer interface {
	Export(ctx context.Context, owner string, tripID uuid.UUID) ([]domain.ExportRow, error)
}

// Server holds the services every handler method needs.
type Server struct {
	trips     TripServicer
	itinerary ItineraryServicer
	articles  ArticleServicer
	export    ExportServicer
	openAPI   []byte
}

// NewServer constructs the Server with all its dependencies. openAPI is the
// document served at /openapi.yaml; nil disables the route.
func NewServer(trips TripServicer, itinerary ItineraryServicer, articles ArticleServicer, export ExportServicer, openAPI []byte) *Server {
	return &Server{trips: trips, itinerary: itinerary, articles: articles, export: export, openAPI: openAPI}
}

// Routes returns the API router. requireAuth guards every route that acts
// on behalf of a user; it must store the user id with
// middleware.WithUserID.
func (s *Server) Routes(requireAuth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	if s.openAPI != nil {
		r.Get("/openapi.yaml", s.GetOpenAPI)
	}
	r.Get("/articles", s.ListArticles)
	r.Get("/articles/{articleId}", s.GetArticle)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Delete("/articles/{articleId}", s.DeleteArticle)

		r.Route("/trips", func(r chi.Router) {
			r.Post("/", s.CreateTrip)
			r.Get("/", s.ListTrips)

			r.Route("/{tripId}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Put("/", s.UpdateTrip)
				r.Delete("/", s.DeleteTrip)
				r.Get("/export", s.GetExport)
				r.Post("/reorder", s.ReorderStops)
				r.Post("/move", s.MoveStop)
				r.Post("/articles", s.PublishArticle)
				r.Get("/days", s.ListDays)

				r.Route("/days/{date}", func(r chi.Router) {
					r.Get("/", s.GetDay)
					r.Put("/departure", s.UpdateDepartureTime)
					r.Post("/stops", s.AddStop)

					r.Route("/stops/{stopId}", func(r chi.Router) {
						r.Delete("/", s.DeleteStop)
						r.Put("/mode", s.ChangeTransportMode)
						r.Put("/stay", s.UpdateStayDuration)
						r.Put("/description", s.UpdateStopDetails)
					})
				})
			})
		})
	})

	return r
}
