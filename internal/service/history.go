package service

import (
	"context"
	"strings"

	"github.com/alexivanou/weather-dashboard/internal/apperr"
	"github.com/alexivanou/weather-dashboard/internal/model"
	"go.uber.org/zap"
)

// SaveHistory records loc for deviceID unless the device already has a
// record at the same coordinates. It reports whether a record was created.
func (s *Service) SaveHistory(ctx context.Context, deviceID string, loc model.Location) (bool, error) {
	if strings.TrimSpace(deviceID) == "" {
		return false, apperr.NewValidation("device_id", "is required")
	}
	if loc.Name == "" || loc.Country == "" || !loc.Valid() {
		return false, apperr.NewValidation("location", "name, country and valid coordinates are required")
	}

	rec := model.NewHistoryRecord(deviceID, loc, s.clock.Now())
	inserted, err := s.historyRepo.InsertIfAbsent(ctx, rec)
	if err != nil {
		s.countSave("error")
		return false, &apperr.PersistenceError{Op: "save history", Err: err}
	}

	if inserted {
		s.countSave("inserted")
		s.logger.Info("Location history record created",
			zap.String("device_id", deviceID),
			zap.String("display_name", rec.DisplayName),
		)
	} else {
		s.countSave("duplicate")
	}
	return inserted, nil
}

// ListHistory returns deviceID's records, most recently first used first.
func (s *Service) ListHistory(ctx context.Context, deviceID string) ([]model.LocationHistoryRecord, error) {
	if strings.TrimSpace(deviceID) == "" {
		return nil, apperr.NewValidation("device_id", "is required")
	}

	records, err := s.historyRepo.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "list history", Err: err}
	}
	return records, nil
}

func (s *Service) countSave(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.HistorySaves.WithLabelValues(result).Inc()
}
