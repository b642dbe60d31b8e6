// Package presentation derives the dashboard theme from the local hour at
// the selected city and the reported weather conditions.
package presentation

import (
	"strings"
	"time"

	"github.com/alexivanou/weather-dashboard/internal/model"
)

// TimeBucket is a coarse part of the day.
type TimeBucket string

const (
	Morning TimeBucket = "morning"
	Day     TimeBucket = "day"
	Evening TimeBucket = "evening"
	Night   TimeBucket = "night"
)

// WeatherEffect is the overlay category for a weather description.
type WeatherEffect string

const (
	EffectClear  WeatherEffect = "clear"
	EffectClouds WeatherEffect = "clouds"
	EffectRain   WeatherEffect = "rain"
	EffectSnow   WeatherEffect = "snow"
	EffectOther  WeatherEffect = "other"
)

// State is what the renderer needs besides the raw snapshot.
type State struct {
	TimeBucket    TimeBucket    `json:"timeBucket"`
	WeatherEffect WeatherEffect `json:"weatherEffect"`
	LocalTime     time.Time     `json:"localTime"`
}

// Keyword groups are checked in slice order; the first hit wins.
var effectKeywords = []struct {
	effect   WeatherEffect
	keywords []string
}{
	{EffectClouds, []string{"cloud", "overcast"}},
	{EffectRain, []string{"rain", "drizzle", "shower", "thunder"}},
	{EffectSnow, []string{"snow", "sleet", "blizzard"}},
	{EffectClear, []string{"clear", "sun"}},
}

// BucketForHour maps a local hour (0-23) to its time bucket.
// Each boundary hour belongs to the bucket it opens.
func BucketForHour(hour int) TimeBucket {
	switch {
	case hour >= 5 && hour < 8:
		return Morning
	case hour >= 8 && hour < 17:
		return Day
	case hour >= 17 && hour < 20:
		return Evening
	default:
		return Night
	}
}

// EffectFor classifies a weather description and condition group.
// A known condition group decides; otherwise the description is matched
// by keyword. Unknown or empty input yields EffectOther.
func EffectFor(description, condition string) WeatherEffect {
	if effect, ok := effectForCondition(condition); ok {
		return effect
	}

	text := strings.ToLower(description + " " + condition)
	for _, group := range effectKeywords {
		if hasAny(text, group.keywords...) {
			return group.effect
		}
	}
	return EffectOther
}

func effectForCondition(condition string) (WeatherEffect, bool) {
	switch strings.ToLower(strings.TrimSpace(condition)) {
	case "clear":
		return EffectClear, true
	case "clouds":
		return EffectClouds, true
	case "rain", "drizzle", "thunderstorm":
		return EffectRain, true
	case "snow":
		return EffectSnow, true
	default:
		return "", false
	}
}

// LocalTime shifts now into the fixed zone offsetSeconds east of UTC.
func LocalTime(now time.Time, offsetSeconds int) time.Time {
	return now.In(time.FixedZone("", offsetSeconds))
}

// Derive computes the presentation state for snap observed at now.
func Derive(snap model.WeatherSnapshot, now time.Time) State {
	local := LocalTime(now, snap.TimezoneOffsetSeconds)
	return State{
		TimeBucket:    BucketForHour(local.Hour()),
		WeatherEffect: EffectFor(snap.Description, snap.Condition),
		LocalTime:     local,
	}
}

func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
