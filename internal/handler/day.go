package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-planner/internal/domain"
	"github.com/pkordes/itinerary-planner/internal/service"
	"github.com/pkordes/itinerary-planner/internal/timeline"
)

// clockLayout formats projected times in day views.
const clockLayout = "15:04"

// Segment is the API representation of a travel leg.
type Segment struct {
	Mode            domain.TransportMode `json:"mode"`
	DurationSeconds int                  `json:"duration_s"`
	DistanceKm      float64              `json:"distance_km"`
	Geometry        []domain.Coordinates `json:"geometry"`
	FromStopID      uuid.UUID            `json:"from_stop_id"`
}

// Stop is a stop together with its projected times. TravelUnknown is set on
// a non-first stop whose route could not be computed; its travel then counts
// as zero in Start and End.
type Stop struct {
	ID            uuid.UUID            `json:"id"`
	Position      int                  `json:"position"`
	PlaceName     string               `json:"place_name"`
	PlaceID       string               `json:"place_id,omitempty"`
	Location      domain.Coordinates   `json:"location"`
	StaySeconds   int                  `json:"stay_s"`
	Mode          domain.TransportMode `json:"mode"`
	Segment       *Segment             `json:"segment"`
	TravelUnknown bool                 `json:"travel_unknown"`
	Start         string               `json:"start"`
	End           string               `json:"end"`
	StartAt       time.Time            `json:"start_at"`
	EndAt         time.Time            `json:"end_at"`
	Description   string               `json:"description,omitempty"`
	PhotoRef      string               `json:"photo_ref,omitempty"`
}

// Day is a day of a trip with its timeline.
type Day struct {
	Date          string `json:"date"`
	DepartureTime string `json:"departure_time"`
	EndOfDay      string `json:"end_of_day"`
	Stops         []Stop `json:"stops"`
}

// AddStopRequest is the body of POST .../stops.
type AddStopRequest struct {
	PlaceName   string               `json:"place_name"`
	PlaceID     string               `json:"place_id,omitempty"`
	Location    *domain.Coordinates  `json:"location"`
	StaySeconds *int                 `json:"stay_s,omitempty"`
	Mode        domain.TransportMode `json:"mode,omitempty"`
	Description string               `json:"description,omitempty"`
	PhotoRef    string               `json:"photo_ref,omitempty"`
	Position    *int                 `json:"position,omitempty"`
}

// AddStopResponse returns the new stop and the day it now belongs to.
type AddStopResponse struct {
	Stop Stop `json:"stop"`
	Day  Day  `json:"day"`
}

// ReorderRequest is the body of POST /trips/{tripId}/reorder: the complete
// new order of every listed day.
type ReorderRequest struct {
	Days []struct {
		Date    string      `json:"date"`
		StopIDs []uuid.UUID `json:"stop_ids"`
	} `json:"days"`
}

// MoveRequest is the body of POST /trips/{tripId}/move.
type MoveRequest struct {
	FromDate  string `json:"from_date"`
	FromIndex *int   `json:"from_index"`
	ToDate    string `json:"to_date"`
	ToIndex   *int   `json:"to_index"`
}

// DaysResponse wraps the days touched by a reorder or move.
type DaysResponse struct {
	Days []Day `json:"days"`
}

// ListDays handles GET /trips/{tripId}/days.
func (s *Server) ListDays(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripScope(w, r)
	if !ok {
		return
	}
	days, err := s.itinerary.ListDays(r.Context(), user, tripID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DaysResponse{Days: daysToResponse(days)})
}

// GetDay handles GET /trips/{tripId}/days/{date}.
func (s *Server) GetDay(w http.ResponseWriter, r *http.Request) {
	user, tripID, date, ok := dayScope(w, r)
	if !ok {
		return
	}
	s.respondDay(w, r, http.StatusOK, user, tripID, date)
}

// UpdateDepartureTime handles PUT .../days/{date}/departure.
func (s *Server) UpdateDepartureTime(w http.ResponseWriter, r *http.Request) {
	user, tripID, date, ok := dayScope(w, r)
	if !ok {
		return
	}
	var body struct {
		DepartureTime string `json:"departure_time"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if _, err := s.itinerary.UpdateDepartureTime(r.Context(), user, tripID, date, body.DepartureTime); err != nil {
		serviceError(w, r, err)
		return
	}
	s.respondDay(w, r, http.StatusOK, user, tripID, date)
}

// AddStop handles POST .../days/{date}/stops.
func (s *Server) AddStop(w http.ResponseWriter, r *http.Request) {
	user, tripID, date, ok := dayScope(w, r)
	if !ok {
		return
	}
	var body AddStopRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Location == nil {
		requestError(w, "location is required")
		return
	}

	stop, err := s.itinerary.AddStop(r.Context(), user, tripID, date, service.NewStop{
		PlaceName:   body.PlaceName,
		PlaceID:     body.PlaceID,
		Location:    *body.Location,
		StaySeconds: body.StaySeconds,
		Mode:        body.Mode,
		Description: body.Description,
		PhotoRef:    body.PhotoRef,
		Position:    body.Position,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}

	day, err := s.itinerary.GetDay(r.Context(), user, tripID, date)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	view := dayToResponse(day)
	resp := AddStopResponse{Day: view}
	for _, st := range view.Stops {
		if st.ID == stop.ID {
			resp.Stop = st
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// DeleteStop handles DELETE .../stops/{stopId}.
func (s *Server) DeleteStop(w http.ResponseWriter, r *http.Request) {
	user, tripID, date, stopID, ok := stopScope(w, r)
	if !ok {
		return
	}
	if err := s.itinerary.DeleteStop(r.Context(), user, tripID, date, stopID); err != nil {
		serviceError(w, r, err)
		return
	}
	s.respondDay(w, r, http.StatusOK, user, tripID, date)
}

// ChangeTransportMode handles PUT .../stops/{stopId}/mode. A routing
// failure answers 502 and leaves the stop unchanged.
func (s *Server) ChangeTransportMode(w http.ResponseWriter, r *http.Request) {
	user, tripID, date, stopID, ok := stopScope(w, r)
	if !ok {
		return
	}
	var body struct {
		Mode domain.TransportMode `json:"mode"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Mode == "" {
		requestError(w, "mode is required")
		return
	}
	if err := s.itinerary.ChangeTransportMode(r.Context(), user, tripID, date, stopID, body.Mode); err != nil {
		serviceError(w, r, err)
		return
	}
	s.respondDay(w, r, http.StatusOK, user, tripID, date)
}

// UpdateStayDuration handles PUT .../stops/{stopId}/stay.
func (s *Server) UpdateStayDuration(w http.ResponseWriter, r *http.Request) {
	user, tripID, date, stopID, ok := stopScope(w, r)
	if !ok {
		return
	}
	var body struct {
		StaySeconds *int `json:"stay_s"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.StaySeconds == nil {
		requestError(w, "stay_s is required")
		return
	}
	if err := s.itinerary.UpdateStayDuration(r.Context(), user, tripID, date, stopID, *body.StaySeconds); err != nil {
		serviceError(w, r, err)
		return
	}
	s.respondDay(w, r, http.StatusOK, user, tripID, date)
}

// UpdateStopDetails handles PUT .../stops/{stopId}/description.
func (s *Server) UpdateStopDetails(w http.ResponseWriter, r *http.Request) {
	user, tripID, date, stopID, ok := stopScope(w, r)
	if !ok {
		return
	}
	var body struct {
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := s.itinerary.UpdateStopDetails(r.Context(), user, tripID, date, stopID, body.Description); err != nil {
		serviceError(w, r, err)
		return
	}
	s.respondDay(w, r, http.StatusOK, user, tripID, date)
}

// ReorderStops handles POST /trips/{tripId}/reorder.
func (s *Server) ReorderStops(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripScope(w, r)
	if !ok {
		return
	}
	var body ReorderRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	orders := make([]service.DayOrder, len(body.Days))
	for i, d := range body.Days {
		date, err := domain.ParseDate(d.Date)
		if err != nil {
			requestError(w, "days["+d.Date+"]: date must be formatted as YYYY-MM-DD")
			return
		}
		orders[i] = service.DayOrder{Date: date, StopIDs: d.StopIDs}
	}

	days, err := s.itinerary.ReorderStops(r.Context(), user, tripID, orders)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DaysResponse{Days: daysToResponse(days)})
}

// MoveStop handles POST /trips/{tripId}/move.
func (s *Server) MoveStop(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripScope(w, r)
	if !ok {
		return
	}
	var body MoveRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	from, errFrom := domain.ParseDate(body.FromDate)
	to, errTo := domain.ParseDate(body.ToDate)
	if errFrom != nil || errTo != nil {
		requestError(w, "from_date and to_date must be formatted as YYYY-MM-DD")
		return
	}
	if body.FromIndex == nil || body.ToIndex == nil {
		requestError(w, "from_index and to_index are required")
		return
	}

	days, err := s.itinerary.MoveStop(r.Context(), user, tripID, from, *body.FromIndex, to, *body.ToIndex)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DaysResponse{Days: daysToResponse(days)})
}

// respondDay re-reads the day after a write so the response carries the
// stored state and its timeline.
func (s *Server) respondDay(w http.ResponseWriter, r *http.Request, status int, user string, tripID uuid.UUID, date time.Time) {
	day, err := s.itinerary.GetDay(r.Context(), user, tripID, date)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, status, dayToResponse(day))
}

// --- path scopes ------------------------------------------------------------

func tripScope(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	user, ok := owner(w, r)
	if !ok {
		return "", uuid.Nil, false
	}
	tripID, ok := uuidParam(w, r, "tripId")
	return user, tripID, ok
}

func dayScope(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, time.Time, bool) {
	user, tripID, ok := tripScope(w, r)
	if !ok {
		return "", uuid.Nil, time.Time{}, false
	}
	date, ok := dateParam(w, r)
	return user, tripID, date, ok
}

func stopScope(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, time.Time, uuid.UUID, bool) {
	user, tripID, date, ok := dayScope(w, r)
	if !ok {
		return "", uuid.Nil, time.Time{}, uuid.Nil, false
	}
	stopID, ok := uuidParam(w, r, "stopId")
	return user, tripID, date, stopID, ok
}

// --- mapping helpers --------------------------------------------------------

func daysToResponse(days []domain.Day) []Day {
	out := make([]Day, len(days))
	for i, d := range days {
		out[i] = dayToResponse(d)
	}
	return out
}

func dayToResponse(d domain.Day) Day {
	resp := Day{
		Date:          d.Key(),
		DepartureTime: d.DepartureTime,
		EndOfDay:      timeline.EndOfDay(d).Format(clockLayout),
		Stops:         make([]Stop, 0, len(d.Stops)),
	}
	for i, ts := range timeline.Project(d) {
		st := Stop{
			ID:            ts.ID,
			Position:      i,
			PlaceName:     ts.PlaceName,
			PlaceID:       ts.PlaceID,
			Location:      ts.Location,
			StaySeconds:   ts.StaySeconds,
			Mode:          ts.Mode,
			TravelUnknown: i > 0 && ts.Segment == nil,
			Start:         ts.Start.Format(clockLayout),
			End:           ts.End.Format(clockLayout),
			StartAt:       ts.Start,
			EndAt:         ts.End,
			Description:   ts.Description,
			PhotoRef:      ts.PhotoRef,
		}
		if ts.Segment != nil {
			geometry := ts.Segment.Geometry
			if geometry == nil {
				geometry = []domain.Coordinates{}
			}
			st.Segment = &Segment{
				Mode:            ts.Segment.Mode,
				DurationSeconds: ts.Segment.DurationSeconds,
				DistanceKm:      ts.Segment.DistanceKm,
				Geometry:        geometry,
				FromStopID:      ts.Segment.FromStopID,
			}
		}
		resp.Stops = append(resp.Stops, st)
	}
	return resp
}
