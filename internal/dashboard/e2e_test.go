package dashboard_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexivanou/weather-dashboard/internal/api"
	"github.com/alexivanou/weather-dashboard/internal/client"
	"github.com/alexivanou/weather-dashboard/internal/config"
	"github.com/alexivanou/weather-dashboard/internal/dashboard"
	"github.com/alexivanou/weather-dashboard/internal/database"
	"github.com/alexivanou/weather-dashboard/internal/localstore"
	"github.com/alexivanou/weather-dashboard/internal/presentation"
	"github.com/alexivanou/weather-dashboard/internal/repository"
	"github.com/alexivanou/weather-dashboard/internal/service"
	"github.com/alexivanou/weather-dashboard/internal/stats"
	"github.com/alexivanou/weather-dashboard/internal/upstream"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startServer runs the API over an in-memory store with a fake provider
// that knows a single city.
func startServer(t *testing.T) *httptest.Server {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/geo/1.0/direct":
			w.Write([]byte(`[{"name":"Denver","state":"Colorado","country":"US","lat":39.7392358,"lon":-104.990251}]`))
		case "/data/2.5/weather":
			w.Write([]byte(`{"main":{"temp":53.5},"weather":[{"description":"overcast clouds"}],"timezone":-25200}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(provider.Close)

	cfg := config.DBConfig{Type: config.DBTypeMemory, Name: "dashboard_e2e"}
	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, cfg, "../../migrations"))

	repos := repository.NewRepositories(db, cfg.Type)
	upstreamClient := upstream.NewClient(config.UpstreamConfig{
		APIKey:     "test-key",
		GeoURL:     provider.URL + "/geo/1.0/direct",
		WeatherURL: provider.URL + "/data/2.5/weather",
		Timeout:    5 * time.Second,
	}, nil)
	svc := service.NewService(repos.History, upstreamClient, nil, nil, zap.NewNop())

	srv := httptest.NewServer(api.NewRouter(svc, stats.NewCollector(db, cfg), nil, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func TestDashboard_DenverEndToEnd(t *testing.T) {
	srv := startServer(t)
	statePath := filepath.Join(t.TempDir(), "state.json")
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 3, 15, 0, 0, time.UTC))
	var out bytes.Buffer

	newController := func() *dashboard.Controller {
		ctrl, err := dashboard.NewController(
			client.New(srv.URL, 5*time.Second),
			localstore.New(statePath),
			dashboard.NewTextRenderer(&out),
			clock,
			zap.NewNop(),
		)
		require.NoError(t, err)
		return ctrl
	}

	ctx := context.Background()
	ctrl := newController()

	view, err := ctrl.Submit(ctx, "Denver")
	require.NoError(t, err)
	ctrl.Wait()

	require.NotNil(t, view)
	assert.Equal(t, presentation.EffectClouds, view.Presentation.WeatherEffect)
	// 03:15 UTC is 20:15 the previous evening at UTC-7
	assert.Equal(t, presentation.Night, view.Presentation.TimeBucket)
	assert.Equal(t, 53.5, view.Weather.Temperature)
	assert.Contains(t, out.String(), "Denver, Colorado, US")

	records, err := ctrl.History(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Denver, Colorado, US", records[0].DisplayName)

	// Selecting it again from history does not create a second record
	_, err = ctrl.SelectFromHistory(ctx, records[0])
	require.NoError(t, err)
	_, err = ctrl.Submit(ctx, "denver")
	require.NoError(t, err)
	ctrl.Wait()

	records, err = ctrl.History(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// A new run restores the city and keeps the device id
	restarted := newController()
	assert.Equal(t, ctrl.DeviceID(), restarted.DeviceID())
	restored, err := restarted.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "Denver", restored.Location.Name)

	require.NoError(t, restarted.Reset())
	again, err := newController().Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, again)
}
