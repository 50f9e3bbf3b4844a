package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/afroash/blackice/internal/models"
)

// Source provides the readings served by /api/latest and /api/history
type Source interface {
	Latest(ctx context.Context) (*models.LatestReading, error)
	History(ctx context.Context, hours int) ([]models.HistoryPoint, error)
}

// Compile-time interface checks
var (
	_ Source = (*SQLiteStore)(nil)
	_ Source = (*DemoSource)(nil)
)

// sqliteTimeFormat is the layout used for range bounds in queries
const sqliteTimeFormat = "2006-01-02 15:04:05"

// SQLiteStore reads sensor values recorded by an external recorder.
// The database is opened read-only; the expected schema is
// readings(topic TEXT, value REAL, timestamp TEXT) with one row per
// published value.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// NewSQLiteStore opens the readings database read-only
func NewSQLiteStore(dbPath string, logger zerolog.Logger) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Read-only, but the recorder may hold the write lock
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:     db,
		logger: logger,
		now:    time.Now,
	}

	if err := store.checkSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("path", dbPath).Msg("SQLite readings store opened")

	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// checkSchema makes sure the readings table is there
func (s *SQLiteStore) checkSchema() error {
	rows, err := s.db.Query("SELECT topic, value, timestamp FROM readings LIMIT 1")
	if err != nil {
		return fmt.Errorf("readings table not usable: %w", err)
	}
	return rows.Close()
}

// Latest returns the newest value of each sensor topic.
// Topics are matched by name: "temp" is temperature, "hum" humidity,
// and "wet", "soil" or "moist" the wetness ADC. Missing values are 0
// and updated falls back to now when the table is empty.
func (s *SQLiteStore) Latest(ctx context.Context) (*models.LatestReading, error) {
	query := `
		SELECT topic, value, timestamp
		FROM readings
		WHERE timestamp = (
			SELECT MAX(timestamp)
			FROM readings r2
			WHERE r2.topic = readings.topic
		)
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest readings: %w", err)
	}
	defer rows.Close()

	var temperature, humidity, wetness float64
	var updated time.Time

	for rows.Next() {
		var topic, timestamp string
		var value float64
		if err := rows.Scan(&topic, &value, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}

		switch topicKind(topic) {
		case kindTemperature:
			temperature = value
		case kindHumidity:
			humidity = value
		case kindWetness:
			wetness = value
		default:
			s.logger.Debug().Str("topic", topic).Msg("Ignoring unknown topic")
		}

		ts, err := parseTimestamp(timestamp)
		if err != nil {
			s.logger.Warn().Err(err).Str("topic", topic).Msg("Skipping unparseable timestamp")
			continue
		}
		if ts.After(updated) {
			updated = ts
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if updated.IsZero() {
		updated = s.now()
	}

	return models.NewLatestReading(temperature, humidity, wetness, updated), nil
}

// History returns every value recorded in the last hours, oldest first
func (s *SQLiteStore) History(ctx context.Context, hours int) ([]models.HistoryPoint, error) {
	cutoff := s.now().UTC().Add(-time.Duration(hours) * time.Hour)

	query := `
		SELECT topic, value, timestamp
		FROM readings
		WHERE timestamp >= ?
		ORDER BY timestamp ASC
	`

	rows, err := s.db.QueryContext(ctx, query, cutoff.Format(sqliteTimeFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	history := make([]models.HistoryPoint, 0)
	for rows.Next() {
		var p models.HistoryPoint
		if err := rows.Scan(&p.Topic, &p.Value, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history point: %w", err)
		}
		history = append(history, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return history, nil
}

type readingKind int

const (
	kindUnknown readingKind = iota
	kindTemperature
	kindHumidity
	kindWetness
)

// topicKind classifies an MQTT-style topic name
func topicKind(topic string) readingKind {
	t := strings.ToLower(topic)
	switch {
	case strings.Contains(t, "temp"):
		return kindTemperature
	case strings.Contains(t, "hum"):
		return kindHumidity
	case strings.Contains(t, "wet"), strings.Contains(t, "soil"), strings.Contains(t, "moist"):
		return kindWetness
	default:
		return kindUnknown
	}
}

// parseTimestamp tries multiple formats to parse a SQLite timestamp
func parseTimestamp(ts string) (time.Time, error) {
	formats := []string{
		sqliteTimeFormat,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000000",
		"2006-01-02T15:04:05.000000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, ts); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", ts)
}
