// Package classifier turns sensor readings into black-ice risk
// classifications by prompting a generative model and parsing the
// JSON object out of its reply.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/afroash/blackice/internal/metrics"
	"github.com/afroash/blackice/internal/models"
)

// Fixed messages for results the gateway builds itself
const (
	NotJSONMessage       = "AI response was not JSON. Try again."
	SchemaMismatchMsg    = "AI response did not match the expected format. Try again."
	FailureMessage       = "Gemini request failed. Check model name or API key."
	MonitorSensorsAction = "monitor sensors"
)

// ErrNonJSON is returned by Forecast when the reply holds no JSON object
var ErrNonJSON = errors.New("gemini returned non-JSON")

// Generator produces text for a prompt
type Generator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// Options configures a Classifier
type Options struct {
	Model string
	// StrictSchema downgrades replies that are valid JSON but not a
	// well-formed classification to the not-JSON fallback.
	StrictSchema bool
}

// Classifier runs the prompt, invoke, extract, parse pipeline
type Classifier struct {
	generator Generator
	model     string
	strict    bool
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// New creates a Classifier
func New(generator Generator, opts Options, logger zerolog.Logger, m *metrics.Metrics) *Classifier {
	return &Classifier{
		generator: generator,
		model:     opts.Model,
		strict:    opts.StrictSchema,
		logger:    logger.With().Str("component", "classifier").Logger(),
		metrics:   m,
	}
}

// Model returns the model identifier used for every call
func (c *Classifier) Model() string {
	return c.model
}

// Classify asks the model for a risk classification of reading.
//
// The returned result is never nil. A non-nil error means the call or
// the parse failed; the result then carries risk UNKNOWN and the
// diagnostic fields. A reply without any JSON object is not an error.
func (c *Classifier) Classify(ctx context.Context, reading models.SensorReading) (*models.ClassificationResult, error) {
	prompt := BuildPrompt(reading)

	text, err := c.generator.GenerateText(ctx, c.model, prompt)
	if err != nil {
		return c.failure(reading, err), err
	}

	fragment, ok := ExtractJSON(text)
	if !ok {
		c.logger.Info().Str("raw", text).Msg("Reply held no JSON object")
		c.metrics.ObserveClassification(string(models.RiskMedium), metrics.OutcomeFallback)
		return notJSON(NotJSONMessage, text), nil
	}

	var object json.RawMessage
	if err := json.Unmarshal([]byte(fragment), &object); err != nil {
		err = fmt.Errorf("parse model reply: %w", err)
		return c.failure(reading, err), err
	}

	if c.strict {
		if err := validateSchema(object); err != nil {
			c.logger.Warn().Err(err).Str("raw", text).Msg("Reply did not match the classification schema")
			c.metrics.ObserveClassification(string(models.RiskMedium), metrics.OutcomeFallback)
			return notJSON(SchemaMismatchMsg, text), nil
		}
	}

	result := models.NewPassthroughResult(object)
	c.logger.Info().
		Str("reading", reading.String()).
		Str("risk", string(result.Risk)).
		Msg("Classification completed")
	c.metrics.ObserveClassification(riskLabel(result.Risk), metrics.OutcomePassthrough)
	return result, nil
}

func (c *Classifier) failure(reading models.SensorReading, err error) *models.ClassificationResult {
	c.logger.Error().Err(err).Str("model", c.model).Str("reading", reading.String()).Msg("Gemini error")
	c.metrics.ObserveClassification(string(models.RiskUnknown), metrics.OutcomeFailure)
	return &models.ClassificationResult{
		Risk:    models.RiskUnknown,
		Message: FailureMessage,
		Actions: []string{},
		Error:   err.Error(),
		Model:   c.model,
	}
}

func notJSON(message, raw string) *models.ClassificationResult {
	return &models.ClassificationResult{
		Risk:    models.RiskMedium,
		Message: message,
		Actions: []string{MonitorSensorsAction},
		Raw:     raw,
	}
}

// riskLabel keeps metric cardinality bounded for passthrough objects
func riskLabel(r models.Risk) string {
	if r.IsValid() {
		return string(r)
	}
	return "other"
}

// validateSchema checks object against the classification contract
func validateSchema(object json.RawMessage) error {
	var probe struct {
		Risk    *string   `json:"risk"`
		Message *string   `json:"message"`
		Actions *[]string `json:"actions"`
	}
	if err := json.Unmarshal(object, &probe); err != nil {
		return fmt.Errorf("wrong field types: %w", err)
	}
	if probe.Risk == nil {
		return errors.New("risk is missing")
	}
	switch models.Risk(*probe.Risk) {
	case models.RiskLow, models.RiskMedium, models.RiskHigh:
	default:
		return fmt.Errorf("risk %q is not LOW, MEDIUM or HIGH", *probe.Risk)
	}
	if probe.Message == nil || *probe.Message == "" {
		return errors.New("message is missing")
	}
	if probe.Actions == nil {
		return errors.New("actions is missing")
	}
	return nil
}
