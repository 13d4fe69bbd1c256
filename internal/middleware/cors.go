// Package middleware holds the HTTP middleware of the itinerary planner API.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// corsMaxAge is how long, in seconds, browsers may cache a preflight answer.
const corsMaxAge = 600

// NewCORSHandler allows the listed origins (scheme and host, no trailing
// slash) to call every route of the API with a bearer token. The request id
// and the CSV export filename are readable from browser code.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{RequestIDHeader, "Content-Disposition"},
		MaxAge:         corsMaxAge,
	})
	return c.Handler
}
