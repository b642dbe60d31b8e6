package model

import (
	"math"
	"strings"
	"time"
)

// Location is a place resolved by the geocoding provider.
type Location struct {
	Name    string  `json:"name" validate:"required"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country" validate:"required"`
	Lat     float64 `json:"lat" validate:"latitude"`
	Lon     float64 `json:"lon" validate:"longitude"`
}

// Valid reports whether the coordinates are finite and within range.
func (l Location) Valid() bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lon) || math.IsInf(l.Lat, 0) || math.IsInf(l.Lon, 0) {
		return false
	}
	return l.Lat >= -90 && l.Lat <= 90 && l.Lon >= -180 && l.Lon <= 180
}

// DisplayName renders "City, State, Country", dropping an empty state.
func (l Location) DisplayName() string {
	parts := make([]string, 0, 3)
	parts = append(parts, l.Name)
	if s := strings.TrimSpace(l.State); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, l.Country)
	return strings.Join(parts, ", ")
}

// LocationHistoryRecord is one row of a device's location history.
// At most one record exists per (DeviceID, Lat, Lon).
type LocationHistoryRecord struct {
	ID          int64     `json:"id" db:"id"`
	DeviceID    string    `json:"device_id" db:"device_id"`
	CityName    string    `json:"city_name" db:"city_name"`
	State       *string   `json:"state" db:"state"`
	Country     string    `json:"country" db:"country"`
	Lat         float64   `json:"lat" db:"lat"`
	Lon         float64   `json:"lon" db:"lon"`
	DisplayName string    `json:"display_name" db:"display_name"`
	FirstUsed   time.Time `json:"first_used" db:"first_used"`
}

// NewHistoryRecord builds the record stored when a device first uses loc.
func NewHistoryRecord(deviceID string, loc Location, now time.Time) LocationHistoryRecord {
	rec := LocationHistoryRecord{
		DeviceID:    deviceID,
		CityName:    loc.Name,
		Country:     loc.Country,
		Lat:         loc.Lat,
		Lon:         loc.Lon,
		DisplayName: loc.DisplayName(),
		FirstUsed:   now.UTC(),
	}
	if state := strings.TrimSpace(loc.State); state != "" {
		rec.State = &state
	}
	return rec
}

// Location converts the stored record back into a Location.
func (r LocationHistoryRecord) Location() Location {
	loc := Location{
		Name:    r.CityName,
		Country: r.Country,
		Lat:     r.Lat,
		Lon:     r.Lon,
	}
	if r.State != nil {
		loc.State = *r.State
	}
	return loc
}
