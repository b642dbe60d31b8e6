// Package client calls the dashboard server's proxy and history endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexivanou/weather-dashboard/internal/apperr"
	"github.com/alexivanou/weather-dashboard/internal/model"
)

// Client implements dashboard.Backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Geocode calls GET /geocode.
func (c *Client) Geocode(ctx context.Context, query string) ([]model.Location, error) {
	params := url.Values{"q": {query}}

	var locations []model.Location
	if err := c.getJSON(ctx, "/geocode?"+params.Encode(), &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// Weather calls GET /weather and decodes the fields the dashboard shows.
func (c *Client) Weather(ctx context.Context, lat, lon float64) (model.WeatherSnapshot, error) {
	params := url.Values{
		"lat": {formatCoord(lat)},
		"lon": {formatCoord(lon)},
	}

	var current model.CurrentWeather
	if err := c.getJSON(ctx, "/weather?"+params.Encode(), &current); err != nil {
		return model.WeatherSnapshot{}, err
	}
	return current.Snapshot(), nil
}

// SaveHistory calls POST /history.
func (c *Client) SaveHistory(ctx context.Context, deviceID string, loc model.Location) (bool, error) {
	payload, err := json.Marshal(model.SaveHistoryRequest{DeviceID: deviceID, Location: loc})
	if err != nil {
		return false, fmt.Errorf("encode history request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/history", bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp model.SaveHistoryResponse
	if err := c.do(req, &resp); err != nil {
		return false, historyError("save history", err)
	}
	return resp.Inserted, nil
}

// ListHistory calls GET /history.
func (c *Client) ListHistory(ctx context.Context, deviceID string) ([]model.LocationHistoryRecord, error) {
	params := url.Values{"device_id": {deviceID}}

	var records []model.LocationHistoryRecord
	if err := c.getJSON(ctx, "/history?"+params.Encode(), &records); err != nil {
		return nil, historyError("list history", err)
	}
	return records, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperr.UpstreamError{Err: fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperr.UpstreamError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return responseError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// responseError rebuilds the server's error kind from its status code.
func responseError(status int, body []byte) error {
	var envelope model.ErrorResponse
	_ = json.Unmarshal(body, &envelope)

	switch {
	case status == http.StatusBadRequest && envelope.Error != "":
		return &apperr.ValidationError{Message: envelope.Error}
	case status == http.StatusInternalServerError && envelope.Error != "":
		return &apperr.ConfigurationError{Message: envelope.Error}
	case status == http.StatusBadGateway && envelope.Error != "":
		// The server could not reach the provider at all.
		return &apperr.UpstreamError{Body: body, Err: errors.New(envelope.Error)}
	default:
		return &apperr.UpstreamError{StatusCode: status, Body: body}
	}
}

func historyError(op string, err error) error {
	var validationErr *apperr.ValidationError
	if errors.As(err, &validationErr) {
		return err
	}
	return &apperr.PersistenceError{Op: op, Err: err}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
