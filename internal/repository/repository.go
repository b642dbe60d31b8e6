package repository

import (
	"context"

	"github.com/alexivanou/weather-dashboard/internal/config"
	"github.com/alexivanou/weather-dashboard/internal/model"
	"github.com/jmoiron/sqlx"
)

// HistoryRepository defines operations for per-device location history.
// Records are never updated or deleted.
type HistoryRepository interface {
	// InsertIfAbsent stores rec unless a record with the same device id and
	// coordinates exists. It reports whether a row was created.
	InsertIfAbsent(ctx context.Context, rec model.LocationHistoryRecord) (bool, error)
	// ListByDevice returns every record of deviceID, newest first.
	ListByDevice(ctx context.Context, deviceID string) ([]model.LocationHistoryRecord, error)
}

// Container holds all repositories
type Container struct {
	History HistoryRepository
}

// NewRepositories creates repository implementations based on DB type
func NewRepositories(db *sqlx.DB, dbType config.DBType) *Container {
	if dbType == config.DBTypePostgreSQL {
		return &Container{
			History: &pgHistoryRepository{db: db},
		}
	}

	// Default to SQLite
	return &Container{
		History: &sqliteHistoryRepository{db: db},
	}
}

const historyColumns = `id, device_id, city_name, state, country, lat, lon, display_name, first_used`
