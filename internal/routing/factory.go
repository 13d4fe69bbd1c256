package routing

import (
	"fmt"
	"time"
)

// Provider names accepted by New.
const (
	ProviderStraightLine = "straightline"
	ProviderMapbox       = "mapbox"
	ProviderGoogle       = "google"
)

// Options selects and configures a routing backend.
type Options struct {
	Provider     string
	MapboxToken  string
	MapboxURL    string
	GoogleAPIKey string
	Timeout      time.Duration
}

// New returns the backend named by opts.Provider. An empty provider selects
// the offline straight-line estimator.
func New(opts Options) (Router, error) {
	switch opts.Provider {
	case "", ProviderStraightLine:
		return NewStraightLine(), nil
	case ProviderMapbox:
		if opts.MapboxToken == "" {
			return nil, fmt.Errorf("routing.New: mapbox provider requires an access token")
		}
		return NewMapbox(opts.MapboxURL, opts.MapboxToken, opts.Timeout), nil
	case ProviderGoogle:
		if opts.GoogleAPIKey == "" {
			return nil, fmt.Errorf("routing.New: google provider requires an API key")
		}
		return NewGoogle(opts.GoogleAPIKey, "")
	default:
		return nil, fmt.Errorf("routing.New: unknown provider %q", opts.Provider)
	}
}
