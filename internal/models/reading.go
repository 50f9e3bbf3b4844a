package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Wetness ADC bounds (12-bit)
const (
	MinWetnessRaw = 0
	MaxWetnessRaw = 4095
)

// Value is a sensor field exactly as the caller supplied it.
// Nothing is range or type checked; the raw JSON is kept so the
// prompt can show what was actually sent.
type Value struct {
	raw json.RawMessage
}

// Number wraps a numeric sensor value
func Number(f float64) Value {
	return Value{raw: json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64))}
}

// UnmarshalJSON keeps the raw token
func (v *Value) UnmarshalJSON(data []byte) error {
	v.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON writes the raw token back, or null when absent
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// IsSet reports whether the field was present in the request
func (v Value) IsSet() bool {
	return len(v.raw) > 0
}

// IsNull reports whether the field was sent as JSON null
func (v Value) IsNull() bool {
	return bytes.Equal(bytes.TrimSpace(v.raw), []byte("null"))
}

// Float64 returns the numeric value if the field holds a JSON number
func (v Value) Float64() (float64, bool) {
	var f float64
	if !v.IsSet() || v.IsNull() || json.Unmarshal(v.raw, &f) != nil {
		return 0, false
	}
	return f, true
}

// String renders the value for prompt text.
// Absent fields render as "undefined", null as "null", strings without quotes.
func (v Value) String() string {
	if !v.IsSet() {
		return "undefined"
	}
	if v.IsNull() {
		return "null"
	}
	if f, ok := v.Float64(); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	var s string
	if err := json.Unmarshal(v.raw, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, v.raw); err != nil {
		return string(v.raw)
	}
	return compact.String()
}

// SensorReading is one set of road sensor values submitted for classification
type SensorReading struct {
	Temperature Value `json:"temperature"` // °C
	Humidity    Value `json:"humidity"`    // %
	WetnessRaw  Value `json:"wetnessRaw"`  // raw ADC, 0-4095
}

// NewSensorReading creates a reading from numeric values
func NewSensorReading(temperature, humidity, wetnessRaw float64) SensorReading {
	return SensorReading{
		Temperature: Number(temperature),
		Humidity:    Number(humidity),
		WetnessRaw:  Number(wetnessRaw),
	}
}

// String returns the reading as a log-friendly string
func (r SensorReading) String() string {
	return fmt.Sprintf("Temperature: %s°C, Humidity: %s%%, Wetness: %s",
		r.Temperature, r.Humidity, r.WetnessRaw)
}

// LatestReading is the payload of GET /api/latest
type LatestReading struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WetnessRaw  float64 `json:"wetnessRaw"`
	Updated     string  `json:"updated"`
}

// ISOTimestamp formats t as UTC ISO-8601 with milliseconds
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// NewLatestReading creates a LatestReading stamped with updated
func NewLatestReading(temperature, humidity, wetnessRaw float64, updated time.Time) *LatestReading {
	return &LatestReading{
		Temperature: temperature,
		Humidity:    humidity,
		WetnessRaw:  ClampWetness(wetnessRaw),
		Updated:     ISOTimestamp(updated),
	}
}

// ClampWetness pins a wetness value into the ADC range
func ClampWetness(v float64) float64 {
	if v < MinWetnessRaw {
		return MinWetnessRaw
	}
	if v > MaxWetnessRaw {
		return MaxWetnessRaw
	}
	return v
}

// SensorReading converts the latest values into a classification input
func (l *LatestReading) SensorReading() SensorReading {
	return NewSensorReading(l.Temperature, l.Humidity, l.WetnessRaw)
}

// HistoryPoint is one recorded value for a topic
type HistoryPoint struct {
	Topic     string  `json:"topic"`
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp"`
}
