package dashboard

import (
	"fmt"
	"io"

	"github.com/alexivanou/weather-dashboard/internal/model"
	"github.com/alexivanou/weather-dashboard/internal/presentation"
)

var effectIcons = map[presentation.WeatherEffect]string{
	presentation.EffectClear:  "☀",
	presentation.EffectClouds: "☁",
	presentation.EffectRain:   "☂",
	presentation.EffectSnow:   "❄",
	presentation.EffectOther:  "·",
}

var bucketGreetings = map[presentation.TimeBucket]string{
	presentation.Morning: "Good morning",
	presentation.Day:     "Good day",
	presentation.Evening: "Good evening",
	presentation.Night:   "Good night",
}

// TextRenderer writes the dashboard as plain text.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a Renderer writing to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) ShowCandidates(candidates []model.Location) {
	fmt.Fprintln(r.w, "Several places match, pick one:")
	for i, c := range candidates {
		fmt.Fprintf(r.w, "  %d) %s (%.4f, %.4f)\n", i+1, c.DisplayName(), c.Lat, c.Lon)
	}
}

func (r *TextRenderer) ShowWeather(view View) {
	p := view.Presentation
	fmt.Fprintf(r.w, "%s, %s\n", bucketGreetings[p.TimeBucket], view.Location.DisplayName())
	fmt.Fprintf(r.w, "  Local time: %s (%s)\n", p.LocalTime.Format("Mon 15:04"), p.TimeBucket)
	fmt.Fprintf(r.w, "  %s %.0f°F, %s\n", effectIcons[p.WeatherEffect], view.Weather.Temperature, view.Weather.Description)
}

func (r *TextRenderer) ShowError(msg string) {
	fmt.Fprintf(r.w, "Error: %s\n", msg)
}

// ShowHistory lists history records, numbered from 1.
func (r *TextRenderer) ShowHistory(records []model.LocationHistoryRecord) {
	if len(records) == 0 {
		fmt.Fprintln(r.w, "No saved cities yet.")
		return
	}
	fmt.Fprintln(r.w, "Saved cities:")
	for i, rec := range records {
		fmt.Fprintf(r.w, "  %d) %s  %s\n", i+1, rec.DisplayName, rec.FirstUsed.Local().Format("2006-01-02"))
	}
}
