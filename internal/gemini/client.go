// Package gemini talks to the Google Gemini API through the Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/afroash/blackice/internal/metrics"
)

// ErrMissingAPIKey is returned by every call when no credential was configured
var ErrMissingAPIKey = errors.New("missing Gemini API key (set GEMINI_API_KEY)")

// Operation labels used for metrics and logs
const (
	opGenerate   = "generate"
	opListModels = "list_models"
)

// Config holds the settings for the provider client
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint (tests, proxies). Empty uses the SDK default.
	BaseURL string
	// Timeout bounds each call. Zero means no deadline beyond the caller's context.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client generates text and lists models.
// Construction never fails: a missing key or SDK setup error is kept
// and returned from each call, so the server can still start.
type Client struct {
	sdk     *genai.Client
	initErr error
	timeout time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a provider client
func New(ctx context.Context, config Config, logger zerolog.Logger, m *metrics.Metrics) *Client {
	c := &Client{
		timeout: config.Timeout,
		logger:  logger.With().Str("component", "gemini").Logger(),
		metrics: m,
	}

	if strings.TrimSpace(config.APIKey) == "" {
		c.initErr = ErrMissingAPIKey
		return c
	}

	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: config.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: config.BaseURL,
		},
	})
	if err != nil {
		c.initErr = fmt.Errorf("failed to create Gemini client: %w", err)
		c.logger.Error().Err(err).Msg("Gemini client setup failed")
		return c
	}
	c.sdk = sdk
	return c
}

// Ready returns the setup error, if any
func (c *Client) Ready() error {
	return c.initErr
}

// GenerateText sends prompt to model and waits for the full reply
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	if c.initErr != nil {
		return "", c.initErr
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := c.sdk.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	elapsed := time.Since(start)
	c.metrics.ObserveUpstream(opGenerate, err, elapsed)
	if err != nil {
		c.logger.Warn().Err(err).Str("model", model).Dur("elapsed", elapsed).Msg("generateContent failed")
		return "", fmt.Errorf("generate content with %s: %w", model, err)
	}

	text := resp.Text()
	c.logger.Debug().Str("model", model).Int("chars", len(text)).Dur("elapsed", elapsed).Msg("generateContent completed")
	return text, nil
}

// ListModels returns every model name visible to the API key, in provider order
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if c.initErr != nil {
		return nil, c.initErr
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	names := make([]string, 0)
	var listErr error
	for model, err := range c.sdk.Models.All(ctx) {
		if err != nil {
			listErr = err
			break
		}
		names = append(names, model.Name)
	}
	c.metrics.ObserveUpstream(opListModels, listErr, time.Since(start))
	if listErr != nil {
		c.logger.Warn().Err(listErr).Msg("listModels failed")
		return nil, fmt.Errorf("list models: %w", listErr)
	}
	return names, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}
