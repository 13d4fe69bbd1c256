package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkordes/itinerary-planner/internal/domain"
	"github.com/pkordes/itinerary-planner/internal/routing"
)

func newRouteCmd() *cobra.Command {
	var (
		opts     routing.Options
		from, to string
		mode     string
	)
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Ask the routing backend for one travel segment",
		Example: `  itinctl route --from 35.0116,135.7681 --to 34.9671,135.7727 --mode walking
  itinctl route --provider mapbox --from 48.8566,2.3522 --to 51.5074,-0.1278`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			origin, err := parseCoords(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			dest, err := parseCoords(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			m, err := domain.ParseTransportMode(mode)
			if err != nil {
				return err
			}
			router, err := routing.New(opts)
			if err != nil {
				return err
			}

			start := time.Now()
			seg, err := router.Route(cmd.Context(), origin, dest, m)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"provider":    providerName(opts.Provider),
				"mode":        m,
				"duration_s":  seg.DurationSeconds,
				"distance_km": seg.DistanceKm,
				"points":      len(seg.Geometry),
				"elapsed_ms":  time.Since(start).Milliseconds(),
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.Provider, "provider", os.Getenv("ROUTING_PROVIDER"), "straightline, mapbox or google (defaults to $ROUTING_PROVIDER)")
	f.StringVar(&opts.MapboxToken, "mapbox-token", os.Getenv("MAPBOX_ACCESS_TOKEN"), "Mapbox access token")
	f.StringVar(&opts.GoogleAPIKey, "google-key", os.Getenv("GOOGLE_MAPS_API_KEY"), "Google Maps API key")
	f.DurationVar(&opts.Timeout, "timeout", 5*time.Second, "request timeout")
	f.StringVar(&from, "from", "", "origin as lat,lng")
	f.StringVar(&to, "to", "", "destination as lat,lng")
	f.StringVar(&mode, "mode", string(domain.ModeDriving), "driving, walking or cycling")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// parseCoords parses "lat,lng".
func parseCoords(s string) (domain.Coordinates, error) {
	latS, lngS, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("expected lat,lng, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngS), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("longitude: %w", err)
	}
	c := domain.Coordinates{Lat: lat, Lng: lng}
	return c, c.Validate()
}

func providerName(p string) string {
	if p == "" {
		return routing.ProviderStraightLine
	}
	return p
}
