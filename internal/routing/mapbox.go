package routing

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

// DefaultMapboxURL is the public Mapbox API host.
const DefaultMapboxURL = "https://api.mapbox.com"

var mapboxProfiles = map[domain.TransportMode]string{
	domain.ModeDriving: "mapbox/driving",
	domain.ModeWalking: "mapbox/walking",
	domain.ModeCycling: "mapbox/cycling",
}

// Mapbox calls the Mapbox Directions v5 API.
type Mapbox struct {
	client *resty.Client
	token  string
}

// NewMapbox builds a Mapbox router. Transient failures (network errors, 429
// and 5xx responses) are retried with backoff before giving up.
func NewMapbox(baseURL, token string, timeout time.Duration) *Mapbox {
	if baseURL == "" {
		baseURL = DefaultMapboxURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &Mapbox{client: c, token: token}
}

type mapboxResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Duration float64 `json:"duration"` // seconds
		Distance float64 `json:"distance"` // metres
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"` // [lng, lat]
		} `json:"geometry"`
	} `json:"routes"`
}

func (m *Mapbox) Route(ctx context.Context, origin, dest domain.Coordinates, mode domain.TransportMode) (*domain.TravelSegment, error) {
	profile, ok := mapboxProfiles[mode]
	if !ok {
		return nil, unavailable("routing.Mapbox.Route", fmt.Errorf("%w: mode %q", domain.ErrValidation, mode))
	}

	var out mapboxResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"access_token": m.token,
			"geometries":   "geojson",
			"overview":     "simplified",
		}).
		SetResult(&out).
		Get(fmt.Sprintf("/directions/v5/%s/%s;%s", profile, lngLat(origin), lngLat(dest)))
	if err != nil {
		return nil, unavailable("routing.Mapbox.Route", err)
	}
	if resp.IsError() {
		return nil, unavailable("routing.Mapbox.Route", fmt.Errorf("status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String())))
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return nil, unavailable("routing.Mapbox.Route", fmt.Errorf("code %q: %s", out.Code, out.Message))
	}

	r := out.Routes[0]
	geometry := make([]domain.Coordinates, 0, len(r.Geometry.Coordinates))
	for _, p := range r.Geometry.Coordinates {
		geometry = append(geometry, domain.Coordinates{Lat: p[1], Lng: p[0]})
	}

	return &domain.TravelSegment{
		Mode:            mode,
		DurationSeconds: int(r.Duration + 0.5),
		DistanceKm:      r.Distance / 1000,
		Geometry:        geometry,
	}, nil
}

func lngLat(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lat, 'f', 6, 64)
}
