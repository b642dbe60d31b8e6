package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/alexivanou/weather-dashboard/internal/apperr"
	"github.com/alexivanou/weather-dashboard/internal/model"
	"github.com/alexivanou/weather-dashboard/internal/service"
	"go.uber.org/zap"
)

// Handler handles HTTP requests
type Handler struct {
	service service.ServiceInterface
	logger  *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(service service.ServiceInterface, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// Geocode handles GET /geocode
func (h *Handler) Geocode(w http.ResponseWriter, r *http.Request) {
	q := geocodeQuery{Q: strings.TrimSpace(r.URL.Query().Get("q"))}
	if err := validate.Struct(q); err != nil {
		h.writeError(w, r, validationError(err))
		return
	}

	locations, err := h.service.Geocode(r.Context(), q.Q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, locations)
}

// Weather handles GET /weather
func (h *Handler) Weather(w http.ResponseWriter, r *http.Request) {
	q := weatherQuery{
		Lat: strings.TrimSpace(r.URL.Query().Get("lat")),
		Lon: strings.TrimSpace(r.URL.Query().Get("lon")),
	}
	if err := validate.Struct(q); err != nil {
		h.writeError(w, r, validationError(err))
		return
	}

	body, err := h.service.Weather(r.Context(), q.Lat, q.Lon)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Debug("Error writing weather response", zap.Error(err))
	}
}

// SaveHistory handles POST /history
func (h *Handler) SaveHistory(w http.ResponseWriter, r *http.Request) {
	var req model.SaveHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, &apperr.ValidationError{Message: "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		h.writeError(w, r, validationError(err))
		return
	}

	inserted, err := h.service.SaveHistory(r.Context(), req.DeviceID, req.Location)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, model.SaveHistoryResponse{Inserted: inserted})
}

// ListHistory handles GET /history
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	q := historyQuery{DeviceID: strings.TrimSpace(r.URL.Query().Get("device_id"))}
	if err := validate.Struct(q); err != nil {
		h.writeError(w, r, validationError(err))
		return
	}

	records, err := h.service.ListHistory(r.Context(), q.DeviceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, records)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error encoding response", zap.Error(err))
	}
}

// writeError maps err onto a response. A provider error that carries a
// status is relayed with that status and the provider's body unchanged.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)

	var upstreamErr *apperr.UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.HasStatus() {
		h.logger.Warn("Upstream returned error status",
			zap.String("path", r.URL.Path),
			zap.Int("status", upstreamErr.StatusCode),
		)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		w.Write(upstreamErr.Body)
		return
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	h.writeJSON(w, status, model.ErrorResponse{Error: errorMessage(err)})
}

func errorMessage(err error) string {
	var validationErr *apperr.ValidationError
	var configErr *apperr.ConfigurationError
	var upstreamErr *apperr.UpstreamError
	var persistenceErr *apperr.PersistenceError

	switch {
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &configErr):
		return configErr.Error()
	case errors.As(err, &upstreamErr):
		return "weather provider is unreachable"
	case errors.As(err, &persistenceErr):
		return "location history is unavailable"
	default:
		return "internal server error"
	}
}
