package server

import (
	"context"
	"encoding/json"

	"github.com/afroash/blackice/internal/models"
)

// ReadingSource provides the latest reading and recent history
// storage.DemoSource and storage.SQLiteStore implement this interface
type ReadingSource interface {
	// Latest returns the most recent value of each sensor
	Latest(ctx context.Context) (*models.LatestReading, error)

	// History returns values recorded in the last hours, oldest first
	History(ctx context.Context, hours int) ([]models.HistoryPoint, error)
}

// Classifier produces risk classifications and forecasts
// classifier.Classifier implements this interface
type Classifier interface {
	// Classify always returns a result; err marks a hard failure
	Classify(ctx context.Context, reading models.SensorReading) (*models.ClassificationResult, error)

	// Forecast returns the provider's forecast object
	Forecast(ctx context.Context, history []models.HistoryPoint) (json.RawMessage, error)
}

// ModelLister lists the provider's model identifiers
// gemini.Client implements this interface
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}
