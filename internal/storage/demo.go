package storage

import (
	"context"
	"time"

	"github.com/afroash/blackice/internal/models"
)

// Demo values served until a real readings database is configured
const (
	DemoTemperature = -1.8
	DemoHumidity    = 82
	DemoWetnessRaw  = 2800
)

// DemoSource serves fixed demo values stamped with the current time
type DemoSource struct {
	now func() time.Time
}

// NewDemoSource creates a demo source
func NewDemoSource() *DemoSource {
	return &DemoSource{now: time.Now}
}

// Latest returns the demo reading
func (d *DemoSource) Latest(ctx context.Context) (*models.LatestReading, error) {
	return models.NewLatestReading(DemoTemperature, DemoHumidity, DemoWetnessRaw, d.now()), nil
}

// History is always empty for the demo source
func (d *DemoSource) History(ctx context.Context, hours int) ([]models.HistoryPoint, error) {
	return []models.HistoryPoint{}, nil
}
