package api

import (
	"net/http"

	"github.com/alexivanou/weather-dashboard/internal/observability"
	"github.com/alexivanou/weather-dashboard/internal/service"
	"github.com/alexivanou/weather-dashboard/internal/stats"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter creates the HTTP handler for the proxy and history API.
// metrics may be nil.
func NewRouter(
	service service.ServiceInterface,
	statsCollector *stats.Collector,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	handler := NewHandler(service, logger)
	statsHandler := NewStatsHandler(statsCollector, logger)

	router := mux.NewRouter()
	if metrics != nil {
		router.Use(metricsMiddleware(metrics))
	}

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/stats", statsHandler.GetStats).Methods("GET")

	// Proxies
	router.HandleFunc("/geocode", handler.Geocode).Methods("GET")
	router.HandleFunc("/weather", handler.Weather).Methods("GET")

	// Location history
	router.HandleFunc("/history", handler.SaveHistory).Methods("POST")
	router.HandleFunc("/history", handler.ListHistory).Methods("GET")

	return corsMiddleware(router)
}
