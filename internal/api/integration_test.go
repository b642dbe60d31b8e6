package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexivanou/weather-dashboard/internal/config"
	"github.com/alexivanou/weather-dashboard/internal/database"
	"github.com/alexivanou/weather-dashboard/internal/model"
	"github.com/alexivanou/weather-dashboard/internal/observability"
	"github.com/alexivanou/weather-dashboard/internal/repository"
	"github.com/alexivanou/weather-dashboard/internal/service"
	"github.com/alexivanou/weather-dashboard/internal/stats"
	"github.com/alexivanou/weather-dashboard/internal/upstream"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const denverWeather = `{"coord":{"lon":-104.9903,"lat":39.7392},"weather":[{"id":804,"main":"Clouds","description":"overcast clouds","icon":"04d"}],"main":{"temp":53.5},"timezone":-25200,"name":"Denver","sys":{"country":"US"}}`

// fakeProvider serves canned OpenWeatherMap responses
func fakeProvider(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/geo/1.0/direct":
			w.Write([]byte(`[{"name":"Denver","state":"Colorado","country":"US","lat":39.7392358,"lon":-104.990251}]`))
		case "/data/2.5/weather":
			if r.URL.Query().Get("units") != "imperial" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Write([]byte(denverWeather))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type integrationStack struct {
	handler http.Handler
	metrics *observability.Metrics
}

func setupIntegrationStack(t *testing.T, apiKey string) integrationStack {
	cfg := config.DBConfig{
		Type: config.DBTypeMemory,
		Name: "api_" + strings.ReplaceAll(t.Name(), "/", "_"),
	}

	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db, cfg, "../../migrations"))

	provider := fakeProvider(t)
	metrics := observability.NewMetricsForTesting()
	client := upstream.NewClient(config.UpstreamConfig{
		APIKey:     apiKey,
		GeoURL:     provider.URL + "/geo/1.0/direct",
		WeatherURL: provider.URL + "/data/2.5/weather",
		Timeout:    5 * time.Second,
	}, metrics)

	repos := repository.NewRepositories(db, config.DBTypeMemory)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 21, 30, 0, 0, time.UTC))
	svc := service.NewService(repos.History, client, clock, metrics, zap.NewNop())
	statsCollector := stats.NewCollector(db, cfg)

	return integrationStack{
		handler: NewRouter(svc, statsCollector, metrics, zap.NewNop()),
		metrics: metrics,
	}
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAPI_Integration_ErrorPriority(t *testing.T) {
	// No credential configured
	stack := setupIntegrationStack(t, "")

	rr := serve(stack.handler, "GET", "/geocode", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(stack.handler, "GET", "/weather?lat=39.7", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(stack.handler, "GET", "/geocode?q=Denver", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "not configured")

	rr = serve(stack.handler, "GET", "/weather?lat=39.7&lon=-104.9", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	// Provider must not have been contacted
	assert.Equal(t, 0, testutil.CollectAndCount(stack.metrics.UpstreamRequests))
}

func TestAPI_Integration_CORS(t *testing.T) {
	stack := setupIntegrationStack(t, "test-key")

	rr := serve(stack.handler, "OPTIONS", "/geocode", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rr.Header().Get("Access-Control-Allow-Headers"))

	rr = serve(stack.handler, "GET", "/geocode", "")
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPI_Integration_DenverFlow(t *testing.T) {
	stack := setupIntegrationStack(t, "test-key")

	// Geocode
	rr := serve(stack.handler, "GET", "/geocode?q=Denver", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var candidates []model.Location
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &candidates))
	require.Len(t, candidates, 1)
	assert.Equal(t, "Denver, Colorado, US", candidates[0].DisplayName())

	// Save twice; only the first creates a record
	payload, err := json.Marshal(model.SaveHistoryRequest{DeviceID: "device-1", Location: candidates[0]})
	require.NoError(t, err)

	rr = serve(stack.handler, "POST", "/history", string(payload))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"inserted":true}`, rr.Body.String())

	rr = serve(stack.handler, "POST", "/history", string(payload))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"inserted":false}`, rr.Body.String())

	rr = serve(stack.handler, "GET", "/history?device_id=device-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var records []model.LocationHistoryRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Denver, Colorado, US", records[0].DisplayName)

	// Another device sees nothing
	rr = serve(stack.handler, "GET", "/history?device_id=device-2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	// Weather body is relayed unchanged
	rr = serve(stack.handler, "GET", "/weather?lat=39.7392358&lon=-104.990251", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, denverWeather, rr.Body.String())

	assert.Equal(t, float64(1), testutil.ToFloat64(stack.metrics.HistorySaves.WithLabelValues("inserted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(stack.metrics.HistorySaves.WithLabelValues("duplicate")))
	assert.Equal(t, float64(1), testutil.ToFloat64(stack.metrics.HTTPRequests.WithLabelValues("/weather", "GET", "200")))
}

func TestAPI_Integration_OperationalEndpoints(t *testing.T) {
	stack := setupIntegrationStack(t, "test-key")

	rr := serve(stack.handler, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	rr = serve(stack.handler, "GET", "/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var s stats.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Equal(t, "memory", s.Database.Type)

	rr = serve(stack.handler, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
