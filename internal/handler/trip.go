package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

// TripRequest is the body of POST /trips and PUT /trips/{tripId}.
type TripRequest struct {
	Title      string              `json:"title"`
	StartDate  *openapi_types.Date `json:"start_date"`
	EndDate    *openapi_types.Date `json:"end_date"`
	Countries  []string            `json:"countries,omitempty"`
	CoverImage *string             `json:"cover_image,omitempty"`

	// ConfirmDropStops acknowledges that shrinking the date range deletes
	// the stops of the removed days. Ignored on create.
	ConfirmDropStops bool `json:"confirm_drop_stops,omitempty"`
}

// Trip is the API representation of a trip.
type Trip struct {
	ID         uuid.UUID          `json:"id"`
	Title      string             `json:"title"`
	StartDate  openapi_types.Date `json:"start_date"`
	EndDate    openapi_types.Date `json:"end_date"`
	Countries  []string           `json:"countries"`
	CoverImage *string            `json:"cover_image,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// TripList is the body of GET /trips.
type TripList struct {
	Data       []Trip     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := owner(w, r)
	if !ok {
		return
	}
	var body TripRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	trip, err := requestToTrip(body)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	created, err := s.trips.Create(r.Context(), user, trip)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	user, ok := owner(w, r)
	if !ok {
		return
	}
	params := pagination(r)
	trips, total, err := s.trips.ListPaged(r.Context(), user, params)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	data := make([]Trip, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, TripList{
		Data:       data,
		Pagination: newPagination(params, total),
	})
}

// GetTrip handles GET /trips/{tripId}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "tripId")
	if !ok {
		return
	}
	trip, err := s.trips.GetByID(r.Context(), user, id)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateTrip handles PUT /trips/{tripId}. Shrinking the date range over
// days that hold stops answers 409 unless confirm_drop_stops is set.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "tripId")
	if !ok {
		return
	}
	var body TripRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	trip, err := requestToTrip(body)
	if err != nil {
		requestError(w, err.Error())
		return
	}
	trip.ID = id

	updated, err := s.trips.Update(r.Context(), user, domain.TripUpdate{Trip: trip, ConfirmDropStops: body.ConfirmDropStops})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{tripId}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "tripId")
	if !ok {
		return
	}
	if err := s.trips.Delete(r.Context(), user, id); err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

// requestToTrip converts a TripRequest body into a domain.Trip.
// Returns an error if the dates are missing.
func requestToTrip(body TripRequest) (domain.Trip, error) {
	if body.StartDate == nil || body.EndDate == nil {
		return domain.Trip{}, errors.New("start_date and end_date are required")
	}
	t := domain.Trip{
		Title:     body.Title,
		StartDate: body.StartDate.Time,
		EndDate:   body.EndDate.Time,
		Countries: body.Countries,
	}
	if body.CoverImage != nil {
		t.CoverImage = *body.CoverImage
	}
	return t, nil
}

// tripToResponse converts a domain.Trip into its API representation.
func tripToResponse(t domain.Trip) Trip {
	resp := Trip{
		ID:        t.ID,
		Title:     t.Title,
		StartDate: openapi_types.Date{Time: t.StartDate},
		EndDate:   openapi_types.Date{Time: t.EndDate},
		Countries: t.Countries,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if resp.Countries == nil {
		resp.Countries = []string{}
	}
	if t.CoverImage != "" {
		resp.CoverImage = &t.CoverImage
	}
	return resp
}
