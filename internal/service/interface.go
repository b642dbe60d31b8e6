package service

import (
	"context"

	"github.com/alexivanou/weather-dashboard/internal/model"
)

// ServiceInterface defines the service interface for testing
type ServiceInterface interface {
	Geocode(ctx context.Context, query string) ([]model.Location, error)
	Weather(ctx context.Context, lat, lon string) ([]byte, error)
	SaveHistory(ctx context.Context, deviceID string, loc model.Location) (bool, error)
	ListHistory(ctx context.Context, deviceID string) ([]model.LocationHistoryRecord, error)
}
