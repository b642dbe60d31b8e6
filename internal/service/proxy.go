package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexivanou/weather-dashboard/internal/apperr"
	"github.com/alexivanou/weather-dashboard/internal/model"
)

var errMissingCredential = &apperr.ConfigurationError{Message: "weather API key is not configured"}

// Geocode resolves query into candidate locations.
// Inputs are checked before the credential, and both before the provider is called.
func (s *Service) Geocode(ctx context.Context, query string) ([]model.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.NewValidation("q", "query parameter is required")
	}
	if !s.provider.HasCredential() {
		return nil, errMissingCredential
	}

	locations, err := s.provider.Geocode(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}
	return locations, nil
}

// Weather returns the provider's current conditions body for lat/lon.
// The coordinates are forwarded as given, without range checks.
func (s *Service) Weather(ctx context.Context, lat, lon string) ([]byte, error) {
	if strings.TrimSpace(lat) == "" || strings.TrimSpace(lon) == "" {
		return nil, apperr.NewValidation("lat/lon", "both parameters are required")
	}
	if !s.provider.HasCredential() {
		return nil, errMissingCredential
	}

	body, err := s.provider.CurrentWeather(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("current weather: %w", err)
	}
	return body, nil
}
