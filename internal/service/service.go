package service

import (
	"context"

	"github.com/alexivanou/weather-dashboard/internal/model"
	"github.com/alexivanou/weather-dashboard/internal/observability"
	"github.com/alexivanou/weather-dashboard/internal/repository"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Provider is the weather and geocoding backend the proxies forward to.
type Provider interface {
	HasCredential() bool
	Geocode(ctx context.Context, query string) ([]model.Location, error)
	CurrentWeather(ctx context.Context, lat, lon string) ([]byte, error)
}

// Service provides business logic for the API
type Service struct {
	historyRepo repository.HistoryRepository
	provider    Provider
	clock       clockwork.Clock
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewService creates a new service instance. metrics may be nil.
func NewService(
	historyRepo repository.HistoryRepository,
	provider Provider,
	clock clockwork.Clock,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		historyRepo: historyRepo,
		provider:    provider,
		clock:       clock,
		metrics:     metrics,
		logger:      logger,
	}
}
