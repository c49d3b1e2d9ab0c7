package geocode

import (
	"context"
	"log/slog"
	"strings"

	"gameofbones/internal/middleware"
)

// Resolver memoizes geocode lookups. All failure modes (timeout, transport
// error, zero results) downgrade to a nil result so the caller can proceed
// without coordinates; Resolve never returns an error.
type Resolver struct {
	client Client
	store  Store
}

// NewResolver creates a resolver backed by the given client and store.
func NewResolver(client Client, store Store) *Resolver {
	return &Resolver{client: client, store: store}
}

// Normalize produces the cache key for a location string: trimmed and
// case-folded. The query sent to the geocoder stays the original text.
func Normalize(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}

// Resolve maps a free-text location to coordinates, or nil when the input
// is empty or the lookup fails. Both positive and negative outcomes are
// cached under the normalized key, so a repeated lookup never hits the
// external service again. Concurrent misses for the same key may each call
// the geocoder; both writes carry equivalent values, so last-write-wins is
// safe.
func (r *Resolver) Resolve(ctx context.Context, location string) *Coordinates {
	key := Normalize(location)
	if key == "" {
		middleware.GeocodeLookups.WithLabelValues("empty").Inc()
		return nil
	}

	if coords, ok := r.store.Get(key); ok {
		middleware.GeocodeLookups.WithLabelValues("hit").Inc()
		return coords
	}

	var coords *Coordinates
	results, err := r.client.Search(ctx, location)
	switch {
	case err != nil:
		middleware.GeocodeLookups.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "geocode lookup failed",
			slog.String("location", location),
			slog.String("error", err.Error()),
		)
	case len(results) == 0:
		middleware.GeocodeLookups.WithLabelValues("negative").Inc()
	default:
		middleware.GeocodeLookups.WithLabelValues("miss").Inc()
		coords = &Coordinates{
			Latitude:  results[0].Latitude,
			Longitude: results[0].Longitude,
		}
	}

	r.store.Set(key, coords)
	return coords
}

// Clear empties the memoization store. Maintenance hook, also used for
// test isolation.
func (r *Resolver) Clear() {
	r.store.Clear()
}
