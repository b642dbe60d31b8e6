package stats

import (
	"context"
	"fmt"
	"time"
)

// topLocationsLimit caps HistoryStats.TopLocations.
const topLocationsLimit = 5

// HistoryStats summarizes the location history table.
type HistoryStats struct {
	Records         int64           `json:"records"`
	Devices         int64           `json:"devices"`
	Locations       int64           `json:"distinct_locations"`
	MaxPerDevice    int64           `json:"max_per_device"`
	AvgPerDevice    float64         `json:"avg_per_device"`
	TopLocations    []LocationUsage `json:"top_locations"`
	LatestFirstUsed *time.Time      `json:"latest_first_used,omitempty"`
}

// LocationUsage is a place and the number of devices that selected it.
type LocationUsage struct {
	DisplayName string  `db:"display_name" json:"display_name"`
	Lat         float64 `db:"lat" json:"lat"`
	Lon         float64 `db:"lon" json:"lon"`
	Devices     int64   `db:"devices" json:"devices"`
}

// A place is identified by its coordinates; the same city saved by
// several devices counts once.
const (
	historyTotalsQuery = `
		SELECT COUNT(*) AS records, COUNT(DISTINCT device_id) AS devices
		FROM location_history`
	historyPlacesQuery = `
		SELECT COUNT(*) FROM (SELECT DISTINCT lat, lon FROM location_history) AS places`
	historyMaxPerDeviceQuery = `
		SELECT COALESCE(MAX(n), 0)
		FROM (SELECT COUNT(*) AS n FROM location_history GROUP BY device_id) AS per_device`
	historyTopQuery = `
		SELECT MIN(display_name) AS display_name, lat, lon, COUNT(*) AS devices
		FROM location_history
		GROUP BY lat, lon
		ORDER BY devices DESC, display_name
		LIMIT %d`
	historyLatestQuery = `
		SELECT first_used FROM location_history ORDER BY first_used DESC LIMIT 1`
)

func (c *Collector) getHistoryStats(ctx context.Context) (*HistoryStats, error) {
	var totals struct {
		Records int64 `db:"records"`
		Devices int64 `db:"devices"`
	}
	if err := c.db.GetContext(ctx, &totals, historyTotalsQuery); err != nil {
		return nil, fmt.Errorf("failed to get history totals: %w", err)
	}

	stats := &HistoryStats{
		Records:      totals.Records,
		Devices:      totals.Devices,
		TopLocations: []LocationUsage{},
	}
	if totals.Records == 0 {
		return stats, nil
	}

	if err := c.db.GetContext(ctx, &stats.Locations, historyPlacesQuery); err != nil {
		return nil, fmt.Errorf("failed to count history locations: %w", err)
	}
	if err := c.db.GetContext(ctx, &stats.MaxPerDevice, historyMaxPerDeviceQuery); err != nil {
		return nil, fmt.Errorf("failed to get history per device: %w", err)
	}
	stats.AvgPerDevice = float64(totals.Records) / float64(totals.Devices)

	if err := c.db.SelectContext(ctx, &stats.TopLocations, fmt.Sprintf(historyTopQuery, topLocationsLimit)); err != nil {
		return nil, fmt.Errorf("failed to get top history locations: %w", err)
	}

	var latest time.Time
	if err := c.db.GetContext(ctx, &latest, historyLatestQuery); err != nil {
		return nil, fmt.Errorf("failed to get latest history entry: %w", err)
	}
	stats.LatestFirstUsed = &latest

	return stats, nil
}
