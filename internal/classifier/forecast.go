package classifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/afroash/blackice/internal/models"
)

// Forecast asks the model to extrapolate the next hours from history and
// returns the JSON object from its reply. Unlike Classify, a reply with
// no JSON object is an error.
func (c *Classifier) Forecast(ctx context.Context, history []models.HistoryPoint) (json.RawMessage, error) {
	prompt := BuildForecastPrompt(history)

	text, err := c.generator.GenerateText(ctx, c.model, prompt)
	if err != nil {
		c.logger.Error().Err(err).Str("model", c.model).Msg("Forecast request failed")
		return nil, err
	}

	fragment, ok := ExtractJSON(text)
	if !ok {
		c.logger.Warn().Str("raw", text).Msg("Forecast reply held no JSON object")
		return nil, ErrNonJSON
	}

	var object json.RawMessage
	if err := json.Unmarshal([]byte(fragment), &object); err != nil {
		c.logger.Warn().Err(err).Str("raw", text).Msg("Forecast reply was not valid JSON")
		return nil, fmt.Errorf("parse forecast reply: %w", err)
	}

	c.logger.Info().Int("history_points", len(history)).Msg("Forecast completed")
	return object, nil
}
