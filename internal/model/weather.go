package model

// WeatherSnapshot is the subset of the provider's current-conditions
// response the dashboard renders. Temperatures are Fahrenheit.
type WeatherSnapshot struct {
	Temperature           float64
	Description           string
	Condition             string
	TimezoneOffsetSeconds int
	Name                  string
	Country               string
}

// CurrentWeather mirrors the provider's current-conditions JSON.
type CurrentWeather struct {
	Name     string `json:"name"`
	Timezone int    `json:"timezone"`
	Main     struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// Snapshot flattens the provider response.
func (w CurrentWeather) Snapshot() WeatherSnapshot {
	s := WeatherSnapshot{
		Temperature:           w.Main.Temp,
		TimezoneOffsetSeconds: w.Timezone,
		Name:                  w.Name,
		Country:               w.Sys.Country,
	}
	if len(w.Weather) > 0 {
		s.Description = w.Weather[0].Description
		s.Condition = w.Weather[0].Main
	}
	return s
}
