// Package dashboard drives the city selection flow: resolve a query,
// disambiguate, remember the choice, fetch conditions and render.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexivanou/weather-dashboard/internal/apperr"
	"github.com/alexivanou/weather-dashboard/internal/geo"
	"github.com/alexivanou/weather-dashboard/internal/model"
	"github.com/alexivanou/weather-dashboard/internal/presentation"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// duplicateRadiusKm is how close two same-named candidates must be to be
// treated as one place.
const duplicateRadiusKm = 1.0

var (
	// ErrSuperseded is returned when a newer request replaced this one
	// before its response arrived. Nothing was rendered.
	ErrSuperseded = errors.New("dashboard: request superseded by a newer one")
	// ErrNoMatch is returned when geocoding produced no candidates.
	ErrNoMatch = errors.New("dashboard: no matching city")
	// ErrNoSelection is returned by Refresh when no city is selected.
	ErrNoSelection = errors.New("dashboard: no city selected")
)

// Backend is the server API the controller talks to.
type Backend interface {
	Geocode(ctx context.Context, query string) ([]model.Location, error)
	Weather(ctx context.Context, lat, lon float64) (model.WeatherSnapshot, error)
	SaveHistory(ctx context.Context, deviceID string, loc model.Location) (bool, error)
	ListHistory(ctx context.Context, deviceID string) ([]model.LocationHistoryRecord, error)
}

// LocalStore keeps client-side state between runs.
type LocalStore interface {
	DeviceID() (string, error)
	SelectedCity() (*model.Location, error)
	SetSelectedCity(loc model.Location) error
	ClearSelectedCity() error
}

// Renderer displays controller output. Methods are called with the
// session locked and must not call back into the Controller.
type Renderer interface {
	ShowCandidates(candidates []model.Location)
	ShowWeather(view View)
	ShowError(msg string)
}

// View is everything rendered for a selected city.
type View struct {
	Location     model.Location
	Weather      model.WeatherSnapshot
	Presentation presentation.State
	FetchedAt    time.Time
}

// Controller coordinates the backend, local store and renderer for one session.
type Controller struct {
	backend  Backend
	store    LocalStore
	renderer Renderer
	clock    clockwork.Clock
	logger   *zap.Logger
	session  *Session
	saves    sync.WaitGroup
}

// NewController creates a controller, loading or creating the device id.
func NewController(backend Backend, store LocalStore, renderer Renderer, clock clockwork.Clock, logger *zap.Logger) (*Controller, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	deviceID, err := store.DeviceID()
	if err != nil {
		return nil, fmt.Errorf("load device id: %w", err)
	}

	return &Controller{
		backend:  backend,
		store:    store,
		renderer: renderer,
		clock:    clock,
		logger:   logger,
		session:  newSession(deviceID),
	}, nil
}

// Submit resolves query. With one distinct candidate the city is selected
// and rendered; with several the controller waits for Pick and returns a
// nil view.
func (c *Controller) Submit(ctx context.Context, query string) (*View, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		err := apperr.NewValidation("query", "enter a city name")
		c.fail(err)
		return nil, err
	}

	c.session.mu.Lock()
	gen := c.session.begin(StateResolving)
	c.session.candidates = nil
	c.session.mu.Unlock()

	candidates, err := c.backend.Geocode(ctx, query)

	c.session.mu.Lock()
	if !c.session.current(gen) {
		c.session.mu.Unlock()
		return nil, ErrSuperseded
	}
	if err != nil {
		c.failLocked(err)
		c.session.mu.Unlock()
		return nil, err
	}

	candidates = dedupeCandidates(candidates)
	switch len(candidates) {
	case 0:
		c.failLocked(fmt.Errorf("%w for %q", ErrNoMatch, query))
		c.session.mu.Unlock()
		return nil, ErrNoMatch
	case 1:
		c.session.mu.Unlock()
		return c.selectLocation(ctx, gen, candidates[0], true)
	default:
		c.session.state = StateDisambiguating
		c.session.candidates = candidates
		c.session.lastError = ""
		c.renderer.ShowCandidates(candidates)
		c.session.mu.Unlock()
		return nil, nil
	}
}

// Pick selects candidate i after Submit left the controller disambiguating.
func (c *Controller) Pick(ctx context.Context, i int) (*View, error) {
	c.session.mu.Lock()
	if c.session.state != StateDisambiguating {
		c.session.mu.Unlock()
		return nil, apperr.NewValidation("pick", "no candidates to choose from")
	}
	if i < 0 || i >= len(c.session.candidates) {
		n := len(c.session.candidates)
		c.session.mu.Unlock()
		return nil, apperr.NewValidation("pick", fmt.Sprintf("choose a number between 1 and %d", n))
	}
	loc := c.session.candidates[i]
	gen := c.session.begin(StateSelected)
	c.session.mu.Unlock()

	return c.selectLocation(ctx, gen, loc, true)
}

// Select makes loc the current city, as if it had been resolved.
func (c *Controller) Select(ctx context.Context, loc model.Location) (*View, error) {
	c.session.mu.Lock()
	gen := c.session.begin(StateSelected)
	c.session.mu.Unlock()

	return c.selectLocation(ctx, gen, loc, true)
}

// SelectFromHistory re-selects a stored record without geocoding.
// Its history save is a no-op on the server.
func (c *Controller) SelectFromHistory(ctx context.Context, rec model.LocationHistoryRecord) (*View, error) {
	return c.Select(ctx, rec.Location())
}

// History lists the device's previously selected cities.
func (c *Controller) History(ctx context.Context) ([]model.LocationHistoryRecord, error) {
	records, err := c.backend.ListHistory(ctx, c.DeviceID())
	if err != nil {
		c.fail(err)
		return nil, err
	}
	return records, nil
}

// Restore shows the city stored by a previous run, if any, without
// geocoding it or writing history again.
func (c *Controller) Restore(ctx context.Context) (*View, error) {
	loc, err := c.store.SelectedCity()
	if err != nil {
		c.logger.Warn("Failed to read stored city", zap.Error(err))
		return nil, nil
	}
	if loc == nil {
		return nil, nil
	}

	c.session.mu.Lock()
	gen := c.session.begin(StateSelected)
	c.session.mu.Unlock()

	return c.selectLocation(ctx, gen, *loc, false)
}

// Refresh re-fetches conditions for the current city.
func (c *Controller) Refresh(ctx context.Context) (*View, error) {
	c.session.mu.Lock()
	if c.session.selected == nil {
		c.session.mu.Unlock()
		return nil, ErrNoSelection
	}
	loc := *c.session.selected
	gen := c.session.begin(StateSelected)
	c.session.mu.Unlock()

	return c.selectLocation(ctx, gen, loc, false)
}

// Reset clears the selected city. The device id is kept.
func (c *Controller) Reset() error {
	c.session.mu.Lock()
	c.session.begin(StateIdle)
	c.session.candidates = nil
	c.session.selected = nil
	c.session.view = nil
	c.session.lastError = ""
	c.session.mu.Unlock()

	if err := c.store.ClearSelectedCity(); err != nil {
		return fmt.Errorf("clear selected city: %w", err)
	}
	return nil
}

// Wait blocks until background history saves have finished.
func (c *Controller) Wait() {
	c.saves.Wait()
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	return c.session.state
}

// Candidates returns the candidates awaiting a Pick.
func (c *Controller) Candidates() []model.Location {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	return append([]model.Location(nil), c.session.candidates...)
}

// Selected returns the current city, or nil.
func (c *Controller) Selected() *model.Location {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	if c.session.selected == nil {
		return nil
	}
	loc := *c.session.selected
	return &loc
}

// LastError returns the message of the most recent failure, if any.
func (c *Controller) LastError() string {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	return c.session.lastError
}

// DeviceID returns this client's device identifier.
func (c *Controller) DeviceID() string {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	return c.session.deviceID
}

// selectLocation enters Selected for loc, starts the history save in the
// background when save is set, and renders the weather if gen is still current.
func (c *Controller) selectLocation(ctx context.Context, gen uint64, loc model.Location, save bool) (*View, error) {
	c.session.mu.Lock()
	if !c.session.current(gen) {
		c.session.mu.Unlock()
		return nil, ErrSuperseded
	}
	c.session.state = StateSelected
	c.session.selected = &loc
	c.session.candidates = nil
	deviceID := c.session.deviceID
	c.session.mu.Unlock()

	if save {
		c.saveInBackground(ctx, deviceID, loc)
	}

	snap, err := c.backend.Weather(ctx, loc.Lat, loc.Lon)

	c.session.mu.Lock()
	defer c.session.mu.Unlock()

	if !c.session.current(gen) {
		return nil, ErrSuperseded
	}
	if err != nil {
		c.failLocked(err)
		return nil, err
	}

	now := c.clock.Now()
	view := View{
		Location:     loc,
		Weather:      snap,
		Presentation: presentation.Derive(snap, now),
		FetchedAt:    now,
	}
	c.session.state = StateRendering
	c.session.view = &view
	c.session.lastError = ""

	if err := c.store.SetSelectedCity(loc); err != nil {
		c.logger.Warn("Failed to store selected city", zap.Error(err))
	}
	c.renderer.ShowWeather(view)

	return &view, nil
}

// saveInBackground records loc in the device history. Failures are logged
// and never reach the user.
func (c *Controller) saveInBackground(ctx context.Context, deviceID string, loc model.Location) {
	ctx = context.WithoutCancel(ctx)
	c.saves.Add(1)
	go func() {
		defer c.saves.Done()

		inserted, err := c.backend.SaveHistory(ctx, deviceID, loc)
		if err != nil {
			var pe *apperr.PersistenceError
			if !errors.As(err, &pe) {
				err = &apperr.PersistenceError{Op: "save history", Err: err}
			}
			c.logger.Warn("Failed to save location history",
				zap.String("display_name", loc.DisplayName()),
				zap.Error(err),
			)
			return
		}
		c.logger.Debug("Location history saved",
			zap.String("display_name", loc.DisplayName()),
			zap.Bool("inserted", inserted),
		)
	}()
}

func (c *Controller) fail(err error) {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	c.failLocked(err)
}

func (c *Controller) failLocked(err error) {
	msg := userMessage(err)
	c.session.fail(msg)
	c.renderer.ShowError(msg)
}

func userMessage(err error) string {
	var validationErr *apperr.ValidationError
	var upstreamErr *apperr.UpstreamError
	var persistenceErr *apperr.PersistenceError

	switch {
	case errors.Is(err, ErrNoMatch):
		return strings.TrimPrefix(err.Error(), "dashboard: ")
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &upstreamErr):
		if upstreamErr.HasStatus() {
			return fmt.Sprintf("weather service error (status %d)", upstreamErr.StatusCode)
		}
		return "weather service is unreachable"
	case errors.As(err, &persistenceErr):
		return "location history is unavailable"
	default:
		return err.Error()
	}
}

// dedupeCandidates drops candidates that repeat an earlier one's name,
// state and country within duplicateRadiusKm. Order is preserved.
func dedupeCandidates(candidates []model.Location) []model.Location {
	out := make([]model.Location, 0, len(candidates))
	for _, cand := range candidates {
		duplicate := false
		for _, kept := range out {
			if strings.EqualFold(kept.Name, cand.Name) &&
				strings.EqualFold(kept.State, cand.State) &&
				strings.EqualFold(kept.Country, cand.Country) &&
				geo.Within(kept.Lat, kept.Lon, cand.Lat, cand.Lon, duplicateRadiusKm) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, cand)
		}
	}
	return out
}
