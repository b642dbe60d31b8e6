package repository

import (
	"context"
	"fmt"

	"github.com/alexivanou/weather-dashboard/internal/model"
	"github.com/jmoiron/sqlx"
)

// --- SQLite Implementation ---

type sqliteHistoryRepository struct {
	db *sqlx.DB
}

func (r *sqliteHistoryRepository) InsertIfAbsent(ctx context.Context, rec model.LocationHistoryRecord) (bool, error) {
	q := `
		INSERT OR IGNORE INTO location_history
			(device_id, city_name, state, country, lat, lon, display_name, first_used)
		VALUES
			(:device_id, :city_name, :state, :country, :lat, :lon, :display_name, :first_used)
	`
	res, err := r.db.NamedExecContext(ctx, q, rec)
	if err != nil {
		return false, fmt.Errorf("insert location history: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert location history: %w", err)
	}
	return affected > 0, nil
}

func (r *sqliteHistoryRepository) ListByDevice(ctx context.Context, deviceID string) ([]model.LocationHistoryRecord, error) {
	q := `SELECT ` + historyColumns + `
		FROM location_history
		WHERE device_id = ?
		ORDER BY first_used DESC, id DESC`

	records := []model.LocationHistoryRecord{}
	if err := r.db.SelectContext(ctx, &records, q, deviceID); err != nil {
		return nil, fmt.Errorf("list location history: %w", err)
	}
	return records, nil
}
