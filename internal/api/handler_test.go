package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexivanou/weather-dashboard/internal/apperr"
	"github.com/alexivanou/weather-dashboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockService is a mock implementation of ServiceInterface
type MockService struct {
	mock.Mock
}

func (m *MockService) Geocode(ctx context.Context, query string) ([]model.Location, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Location), args.Error(1)
}

func (m *MockService) Weather(ctx context.Context, lat, lon string) ([]byte, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockService) SaveHistory(ctx context.Context, deviceID string, loc model.Location) (bool, error) {
	args := m.Called(ctx, deviceID, loc)
	return args.Bool(0), args.Error(1)
}

func (m *MockService) ListHistory(ctx context.Context, deviceID string) ([]model.LocationHistoryRecord, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LocationHistoryRecord), args.Error(1)
}

var denver = model.Location{Name: "Denver", State: "Colorado", Country: "US", Lat: 39.7392358, Lon: -104.990251}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestHandler_Geocode(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		mockSetup      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "successful request",
			query: "Denver",
			mockSetup: func(ms *MockService) {
				ms.On("Geocode", mock.Anything, "Denver").Return([]model.Location{denver}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[{"name":"Denver","state":"Colorado","country":"US","lat":39.7392358,"lon":-104.990251}]`,
		},
		{
			name:  "no candidates",
			query: "Nowhereville",
			mockSetup: func(ms *MockService) {
				ms.On("Geocode", mock.Anything, "Nowhereville").Return([]model.Location{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name:           "missing query parameter",
			query:          "",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"q: is required"}`,
		},
		{
			name:           "blank query parameter",
			query:          "   ",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "missing credential",
			query: "Denver",
			mockSetup: func(ms *MockService) {
				ms.On("Geocode", mock.Anything, "Denver").
					Return(nil, &apperr.ConfigurationError{Message: "weather API key is not configured"})
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"weather API key is not configured"}`,
		},
		{
			name:  "upstream status and body relayed",
			query: "Denver",
			mockSetup: func(ms *MockService) {
				ms.On("Geocode", mock.Anything, "Denver").
					Return(nil, &apperr.UpstreamError{StatusCode: http.StatusUnauthorized, Body: []byte(`{"cod":401,"message":"Invalid API key"}`)})
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"cod":401,"message":"Invalid API key"}`,
		},
		{
			name:  "upstream unreachable",
			query: "Denver",
			mockSetup: func(ms *MockService) {
				ms.On("Geocode", mock.Anything, "Denver").
					Return(nil, &apperr.UpstreamError{Err: errors.New("dial tcp: connection refused")})
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"weather provider is unreachable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			if tt.mockSetup != nil {
				tt.mockSetup(mockService)
			}

			handler := NewHandler(mockService, zap.NewNop())

			req, _ := http.NewRequest("GET", "/geocode", nil)
			q := req.URL.Query()
			if tt.query != "" {
				q.Add("q", tt.query)
			}
			req.URL.RawQuery = q.Encode()

			rr := httptest.NewRecorder()
			handler.Geocode(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestHandler_Weather(t *testing.T) {
	tests := []struct {
		name           string
		lat            string
		lon            string
		mockSetup      func(*MockService)
		expectedStatus int
	}{
		{
			name: "successful request",
			lat:  "39.7392358",
			lon:  "-104.990251",
			mockSetup: func(ms *MockService) {
				ms.On("Weather", mock.Anything, "39.7392358", "-104.990251").
					Return([]byte(`{"main":{"temp":53.5}}`), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing lat",
			lon:            "-104.990251",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing lon",
			lat:            "39.7392358",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			if tt.mockSetup != nil {
				tt.mockSetup(mockService)
			}
			handler := NewHandler(mockService, zap.NewNop())

			req, _ := http.NewRequest("GET", "/weather", nil)
			q := req.URL.Query()
			if tt.lat != "" {
				q.Add("lat", tt.lat)
			}
			if tt.lon != "" {
				q.Add("lon", tt.lon)
			}
			req.URL.RawQuery = q.Encode()
			rr := httptest.NewRecorder()
			handler.Weather(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusOK {
				// Provider body is relayed byte for byte
				assert.Equal(t, `{"main":{"temp":53.5}}`, rr.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}

// brokenWriter is a ResponseWriter whose client has gone away.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (w brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestHandler_Weather_WriteFailureLogged(t *testing.T) {
	mockService := new(MockService)
	mockService.On("Weather", mock.Anything, "39.7392358", "-104.990251").
		Return([]byte(`{"main":{"temp":53.5}}`), nil)

	core, logs := observer.New(zapcore.DebugLevel)
	handler := NewHandler(mockService, zap.New(core))

	req, _ := http.NewRequest("GET", "/weather?lat=39.7392358&lon=-104.990251", nil)
	w := brokenWriter{httptest.NewRecorder()}
	handler.Weather(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	entries := logs.FilterMessage("Error writing weather response").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	mockService.AssertExpectations(t)
}

func TestHandler_SaveHistory(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockSetup      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "new record",
			body: `{"device_id":"device-1","location":{"name":"Denver","state":"Colorado","country":"US","lat":39.7392358,"lon":-104.990251}}`,
			mockSetup: func(ms *MockService) {
				ms.On("SaveHistory", mock.Anything, "device-1", denver).Return(true, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"inserted":true}`,
		},
		{
			name: "already known",
			body: `{"device_id":"device-1","location":{"name":"Denver","state":"Colorado","country":"US","lat":39.7392358,"lon":-104.990251}}`,
			mockSetup: func(ms *MockService) {
				ms.On("SaveHistory", mock.Anything, "device-1", denver).Return(false, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"inserted":false}`,
		},
		{
			name:           "missing device id",
			body:           `{"location":{"name":"Denver","country":"US","lat":39.7,"lon":-104.9}}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"device_id: is required"}`,
		},
		{
			name:           "latitude out of range",
			body:           `{"device_id":"device-1","location":{"name":"Denver","country":"US","lat":139.7,"lon":-104.9}}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"location.lat: must be a valid latitude"}`,
		},
		{
			name:           "malformed body",
			body:           `{"device_id":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "store failure",
			body: `{"device_id":"device-1","location":{"name":"Denver","state":"Colorado","country":"US","lat":39.7392358,"lon":-104.990251}}`,
			mockSetup: func(ms *MockService) {
				ms.On("SaveHistory", mock.Anything, "device-1", denver).
					Return(false, &apperr.PersistenceError{Op: "save history", Err: errors.New("disk full")})
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"location history is unavailable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			if tt.mockSetup != nil {
				tt.mockSetup(mockService)
			}
			handler := NewHandler(mockService, zap.NewNop())

			req := httptest.NewRequest("POST", "/history", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.SaveHistory(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestHandler_ListHistory(t *testing.T) {
	t.Run("missing device id", func(t *testing.T) {
		handler := NewHandler(new(MockService), zap.NewNop())

		rr := httptest.NewRecorder()
		handler.ListHistory(rr, httptest.NewRequest("GET", "/history", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "device_id: is required", decodeError(t, rr))
	})

	t.Run("returns records", func(t *testing.T) {
		mockService := new(MockService)
		state := "Colorado"
		mockService.On("ListHistory", mock.Anything, "device-1").Return([]model.LocationHistoryRecord{
			{ID: 1, DeviceID: "device-1", CityName: "Denver", State: &state, Country: "US", DisplayName: "Denver, Colorado, US"},
		}, nil)
		handler := NewHandler(mockService, zap.NewNop())

		rr := httptest.NewRecorder()
		handler.ListHistory(rr, httptest.NewRequest("GET", "/history?device_id=device-1", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var records []model.LocationHistoryRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
		require.Len(t, records, 1)
		assert.Equal(t, "Denver, Colorado, US", records[0].DisplayName)
	})
}

func TestHandler_HealthCheck(t *testing.T) {
	handler := NewHandler(new(MockService), nil)
	rr := httptest.NewRecorder()
	handler.HealthCheck(rr, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}
