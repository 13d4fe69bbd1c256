package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

// Cached stores successful routes in Redis, keyed by mode and by origin and
// destination rounded to about one metre. Failures are never cached, and a
// Redis outage degrades to calling the wrapped router directly.
type Cached struct {
	next   Router
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps next with a Redis cache.
func NewCached(next Router, rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

type cachedSegment struct {
	DurationSeconds int                  `json:"duration_s"`
	DistanceKm      float64              `json:"distance_km"`
	Geometry        []domain.Coordinates `json:"geometry,omitempty"`
}

// CacheKey returns the Redis key used for a route lookup.
func CacheKey(origin, dest domain.Coordinates, mode domain.TransportMode) string {
	return fmt.Sprintf("route:v1:%s:%.5f,%.5f:%.5f,%.5f", mode, origin.Lat, origin.Lng, dest.Lat, dest.Lng)
}

func (c *Cached) Route(ctx context.Context, origin, dest domain.Coordinates, mode domain.TransportMode) (*domain.TravelSegment, error) {
	key := CacheKey(origin, dest, mode)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cs cachedSegment
		if err := json.Unmarshal(raw, &cs); err == nil {
			return &domain.TravelSegment{
				Mode:            mode,
				DurationSeconds: cs.DurationSeconds,
				DistanceKm:      cs.DistanceKm,
				Geometry:        cs.Geometry,
			}, nil
		}
		c.logger.WarnContext(ctx, "route cache entry unreadable", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "route cache read failed", "key", key, "error", err)
	}

	seg, err := c.next.Route(ctx, origin, dest, mode)
	if err != nil {
		return nil, err
	}
	if seg == nil {
		return nil, unavailable("routing.Cached.Route", errors.New("no route"))
	}

	data, err := json.Marshal(cachedSegment{
		DurationSeconds: seg.DurationSeconds,
		DistanceKm:      seg.DistanceKm,
		Geometry:        seg.Geometry,
	})
	if err == nil {
		err = c.rdb.Set(ctx, key, data, c.ttl).Err()
	}
	if err != nil {
		c.logger.WarnContext(ctx, "route cache write failed", "key", key, "error", err)
	}
	return seg, nil
}
