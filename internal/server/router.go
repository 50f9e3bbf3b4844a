package server

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/afroash/blackice/internal/metrics"
)

// RouterConfig holds what NewRouter needs beyond the API handler
type RouterConfig struct {
	AllowedOrigins []string
	Metrics        *metrics.Metrics
}

// NewRouter wires every endpoint and the middleware chain
func NewRouter(api *APIHandler, config RouterConfig, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	handle := func(route string, h http.HandlerFunc, methods ...string) {
		mux.Handle(route, instrument(config.Metrics, route, allowMethods(h, methods...)))
	}

	handle("/api/latest", api.HandleLatest, http.MethodGet)
	handle("/api/models", api.HandleModels, http.MethodGet)
	handle("/api/ai", api.HandleAI, http.MethodPost)
	handle("/api/history", api.HandleHistory, http.MethodGet)
	handle("/api/forecast", api.HandleForecast, http.MethodGet)
	handle("/health", api.HandleHealth, http.MethodGet)

	mux.Handle("/metrics", config.Metrics.Handler())

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusNotFound, ErrorBody{Error: "not found", Details: r.URL.Path})
	})

	var handler http.Handler = mux
	handler = newCORS(config.AllowedOrigins).Handler(handler)
	handler = accessLog(handler)
	handler = requestID(handler)
	handler = hlog.NewHandler(logger)(handler)
	return handler
}
