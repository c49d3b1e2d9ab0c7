// Package geocode resolves free-text dig-site locations to coordinates
// through an external geocoding service, memoizing results per process.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Result is a single candidate returned by the geocoding service.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
}

// Client searches the external geocoding service for a free-text query.
type Client interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// HTTPClient is a Nominatim-style geocoding client. The service requires a
// client-identifying User-Agent header and rate-limits at roughly one
// request per second; bulk callers must pace themselves (see cmd/geocode-backfill).
type HTTPClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewHTTPClient creates a geocoding client for the given base URL.
// A timeout of zero falls back to 5 seconds.
func NewHTTPClient(baseURL, userAgent string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

// nominatimResult mirrors the wire format; lat/lon arrive as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *HTTPClient) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	endpoint := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var raw []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}

	results := make([]Result, 0, len(raw))
	for _, r := range raw {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		results = append(results, Result{
			Latitude:    lat,
			Longitude:   lon,
			DisplayName: r.DisplayName,
		})
	}
	return results, nil
}
