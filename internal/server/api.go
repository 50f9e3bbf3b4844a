package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/afroash/blackice/internal/models"
)

// maxBodyBytes caps the size of a POST /api/ai body
const maxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of non-classification errors
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// APIHandler handles HTTP API requests
type APIHandler struct {
	readings     ReadingSource
	classifier   Classifier
	lister       ModelLister
	historyHours int
	version      string
	logger       zerolog.Logger
}

// APIHandlerConfig holds the collaborators of an APIHandler
type APIHandlerConfig struct {
	Readings     ReadingSource
	Classifier   Classifier
	Lister       ModelLister
	HistoryHours int // default window for /api/history and /api/forecast
	Version      string
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(config APIHandlerConfig, logger zerolog.Logger) *APIHandler {
	hours := config.HistoryHours
	if hours <= 0 {
		hours = 24
	}
	return &APIHandler{
		readings:     config.Readings,
		classifier:   config.Classifier,
		lister:       config.Lister,
		historyHours: hours,
		version:      config.Version,
		logger:       logger,
	}
}

// HandleLatest returns the latest sensor reading
func (api *APIHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := api.readings.Latest(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("latest reading failed")
		writeJSON(w, r, http.StatusInternalServerError, ErrorBody{Error: "latest failed", Details: err.Error()})
		return
	}

	writeJSON(w, r, http.StatusOK, latest)
}

// HandleModels returns the model identifiers available to the API key
func (api *APIHandler) HandleModels(w http.ResponseWriter, r *http.Request) {
	names, err := api.lister.ListModels(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("listModels error")
		writeJSON(w, r, http.StatusInternalServerError, ErrorBody{Error: "listModels failed", Details: err.Error()})
		return
	}

	writeJSON(w, r, http.StatusOK, names)
}

// HandleAI classifies the posted sensor values
func (api *APIHandler) HandleAI(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)

	var reading models.SensorReading
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&reading); err != nil && !errors.Is(err, io.EOF) {
		// An empty body classifies with every value undefined
		logger.Warn().Err(err).Msg("Rejected request body")
		writeJSON(w, r, http.StatusBadRequest, ErrorBody{Error: "invalid JSON body", Details: err.Error()})
		return
	}

	result, err := api.classifier.Classify(r.Context(), reading)
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, result)
		return
	}

	logger.Debug().Str("risk", string(result.Risk)).Bool("passthrough", result.IsPassthrough()).Msg("Classification sent")
	writeJSON(w, r, http.StatusOK, result)
}

// HandleHistory returns recorded values for the last ?hours= hours
func (api *APIHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	hours := api.hoursParam(r)

	history, err := api.readings.History(r.Context(), hours)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Int("hours", hours).Msg("history query failed")
		writeJSON(w, r, http.StatusInternalServerError, ErrorBody{Error: "history failed", Details: err.Error()})
		return
	}

	writeJSON(w, r, http.StatusOK, history)
}

// HandleForecast asks the model for the next hours based on recent history
func (api *APIHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)

	history, err := api.readings.History(r.Context(), api.hoursParam(r))
	if err != nil {
		logger.Error().Err(err).Msg("forecast history query failed")
		writeJSON(w, r, http.StatusInternalServerError, ErrorBody{Error: "Prediction failed", Details: err.Error()})
		return
	}

	forecast, err := api.classifier.Forecast(r.Context(), history)
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, ErrorBody{Error: "Prediction failed", Details: err.Error()})
		return
	}

	writeJSON(w, r, http.StatusOK, forecast)
}

// HealthStatus is the body of /health
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HandleHealth reports liveness
func (api *APIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthStatus{Status: "ok", Version: api.version})
}

// hoursParam reads ?hours=, falling back to the configured window
func (api *APIHandler) hoursParam(r *http.Request) int {
	hours := api.historyHours
	if v := r.URL.Query().Get("hours"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			hours = parsed
		}
	}
	return hours
}

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Error().Err(err).Int("status", status).Msg("Response encode failed")
	}
}
