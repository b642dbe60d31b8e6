// Package upstream talks to the OpenWeatherMap geocoding and current
// weather endpoints.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alexivanou/weather-dashboard/internal/apperr"
	"github.com/alexivanou/weather-dashboard/internal/config"
	"github.com/alexivanou/weather-dashboard/internal/model"
	"github.com/alexivanou/weather-dashboard/internal/observability"
)

// GeocodeLimit is the maximum number of candidates requested per query.
const GeocodeLimit = 5

// Client calls the provider. It never retries.
type Client struct {
	apiKey     string
	geoURL     string
	weatherURL string
	httpClient *http.Client
	metrics    *observability.Metrics
}

// NewClient creates a provider client from cfg. metrics may be nil.
func NewClient(cfg config.UpstreamConfig, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		geoURL:     cfg.GeoURL,
		weatherURL: cfg.WeatherURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: metrics,
	}
}

// HasCredential reports whether an API key was configured.
func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

// Geocode resolves a free-text query into at most GeocodeLimit locations,
// in the order the provider returned them.
func (c *Client) Geocode(ctx context.Context, query string) ([]model.Location, error) {
	params := url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(GeocodeLimit)},
		"appid": {c.apiKey},
	}

	body, err := c.doRequest(ctx, c.geoURL+"?"+params.Encode(), "geocode")
	if err != nil {
		return nil, err
	}

	var results []geocodeResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, &apperr.UpstreamError{Err: fmt.Errorf("decode geocode response: %w", err)}
	}

	if len(results) > GeocodeLimit {
		results = results[:GeocodeLimit]
	}

	locations := make([]model.Location, 0, len(results))
	for _, r := range results {
		locations = append(locations, model.Location{
			Name:    r.Name,
			State:   r.State,
			Country: r.Country,
			Lat:     r.Lat,
			Lon:     r.Lon,
		})
	}
	return locations, nil
}

// CurrentWeather returns the provider's current conditions body for the
// given coordinates in imperial units, unmodified.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon string) ([]byte, error) {
	params := url.Values{
		"lat":   {lat},
		"lon":   {lon},
		"units": {"imperial"},
		"appid": {c.apiKey},
	}

	return c.doRequest(ctx, c.weatherURL+"?"+params.Encode(), "weather")
}

func (c *Client) doRequest(ctx context.Context, fullURL, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.observeDuration(endpoint, start)
	if err != nil {
		c.countRequest(endpoint, "network_error")
		return nil, &apperr.UpstreamError{Err: fmt.Errorf("%s request: %w", endpoint, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.countRequest(endpoint, "network_error")
		return nil, &apperr.UpstreamError{Err: fmt.Errorf("read %s response: %w", endpoint, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.countRequest(endpoint, "status_error")
		return nil, &apperr.UpstreamError{StatusCode: resp.StatusCode, Body: body}
	}

	c.countRequest(endpoint, "success")
	return body, nil
}

func (c *Client) countRequest(endpoint, outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
}

func (c *Client) observeDuration(endpoint string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// OpenWeatherMap geocoding response item.
type geocodeResult struct {
	Name    string  `json:"name"`
	State   string  `json:"state"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}
