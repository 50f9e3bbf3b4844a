package classifier

import (
	"encoding/json"
	"fmt"

	"github.com/afroash/blackice/internal/models"
)

const classifyPromptTemplate = `
You are an AI system detecting black ice risk on roads.

Sensor Inputs:
- Temperature: %s °C
- Humidity: %s %%
- Wetness sensor: %s (0-4095)

Classify risk as LOW, MEDIUM, or HIGH.
Return ONLY JSON in this exact format:
{"risk":"LOW|MEDIUM|HIGH","message":"one short sentence","actions":["action1","action2"]}
`

const forecastPromptTemplate = `
You are an environmental forecasting AI for road ice detection.

The historical data MAY be sparse or limited.
If trends are unclear, make reasonable assumptions and extrapolate.

Given the following historical sensor readings (timestamped),
predict the next %d hours in 1-hour intervals.

Return ONLY valid JSON in this format:

{
  "forecast": [
    {
      "hour": "+1h",
      "temperature": number,
      "humidity": number,
      "risk": "LOW|MEDIUM|HIGH"
    }
  ],
  "summary": "one short sentence"
}

Historical data:
%s
`

// ForecastHours is how far ahead a forecast looks
const ForecastHours = 5

// BuildPrompt renders the classification prompt for a reading.
// Values are interpolated exactly as supplied.
func BuildPrompt(reading models.SensorReading) string {
	return fmt.Sprintf(classifyPromptTemplate,
		reading.Temperature.String(),
		reading.Humidity.String(),
		reading.WetnessRaw.String(),
	)
}

// BuildForecastPrompt renders the forecast prompt for a history window
func BuildForecastPrompt(history []models.HistoryPoint) string {
	if history == nil {
		history = []models.HistoryPoint{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		// NaN or Inf values cannot be encoded
		data = []byte("[]")
	}
	return fmt.Sprintf(forecastPromptTemplate, ForecastHours, data)
}
