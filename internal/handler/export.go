// Package handler: export.go implements GET /trips/{tripId}/export.
// Returns the trip's itinerary as a flat table, one row per stop.
// Supports content negotiation via ?format=csv (CSV) or default (JSON).
package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_title", "date", "departure_time",
	"position", "place_name", "lat", "lng", "start", "end",
	"stay_minutes", "mode", "travel_minutes", "distance_km", "description",
}

// ExportRow is one row of the JSON export.
type ExportRow struct {
	TripID        string     `json:"trip_id"`
	TripTitle     string     `json:"trip_title"`
	Date          string     `json:"date"`
	DepartureTime string     `json:"departure_time"`
	Position      *int       `json:"position,omitempty"`
	PlaceName     *string    `json:"place_name,omitempty"`
	Lat           *float64   `json:"lat,omitempty"`
	Lng           *float64   `json:"lng,omitempty"`
	Start         *time.Time `json:"start,omitempty"`
	End           *time.Time `json:"end,omitempty"`
	StaySeconds   *int       `json:"stay_s,omitempty"`
	Mode          *string    `json:"mode,omitempty"`
	TravelSeconds *int       `json:"travel_s,omitempty"`
	DistanceKm    *float64   `json:"distance_km,omitempty"`
	Description   *string    `json:"description,omitempty"`
}

// GetExport implements GET /trips/{tripId}/export.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripScope(w, r)
	if !ok {
		return
	}
	rows, err := s.export.Export(r.Context(), user, tripID)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, buildJSONRows(rows))
	case "csv":
		buf := buildCSV(rows)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="itinerary-`+tripID.String()+`.csv"`)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	default:
		requestError(w, "format must be json or csv")
	}
}

// buildJSONRows converts domain rows to the JSON representation. Stop
// fields are omitted on rows of days without stops.
func buildJSONRows(rows []domain.ExportRow) []ExportRow {
	out := make([]ExportRow, 0, len(rows))
	for _, r := range rows {
		row := ExportRow{
			TripID:        r.TripID,
			TripTitle:     r.TripTitle,
			Date:          r.Date,
			DepartureTime: r.DepartureTime,
		}
		if r.Position > 0 {
			row.Position = &r.Position
			row.PlaceName = &r.PlaceName
			row.Lat = &r.Lat
			row.Lng = &r.Lng
			row.Start = r.Start
			row.End = r.End
			row.StaySeconds = &r.StaySeconds
			row.Mode = &r.Mode
			row.TravelSeconds = &r.TravelSeconds
			row.DistanceKm = &r.DistanceKm
			if r.Description != "" {
				row.Description = &r.Description
			}
		}
		out = append(out, row)
	}
	return out
}

// buildCSV encodes domain rows as CSV. Times are written as HH:MM and
// durations in whole minutes.
func buildCSV(rows []domain.ExportRow) *bytes.Buffer {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		cw.Write(rowToCSVRecord(r))
	}
	cw.Flush()
	return &buf
}

// rowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// Rows of days without stops leave every stop column empty.
func rowToCSVRecord(r domain.ExportRow) []string {
	rec := []string{r.TripID, r.TripTitle, r.Date, r.DepartureTime}
	if r.Position == 0 {
		return append(rec, make([]string, len(csvHeaders)-len(rec))...)
	}
	return append(rec,
		strconv.Itoa(r.Position),
		r.PlaceName,
		strconv.FormatFloat(r.Lat, 'f', 6, 64),
		strconv.FormatFloat(r.Lng, 'f', 6, 64),
		formatClock(r.Start),
		formatClock(r.End),
		strconv.Itoa(r.StaySeconds/60),
		r.Mode,
		strconv.Itoa(r.TravelSeconds/60),
		strconv.FormatFloat(r.DistanceKm, 'f', 1, 64),
		r.Description,
	)
}

// formatClock returns t as HH:MM, or "" if t is nil.
func formatClock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(clockLayout)
}
