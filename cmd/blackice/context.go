package main

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/afroash/blackice/internal/classifier"
	"github.com/afroash/blackice/internal/config"
	"github.com/afroash/blackice/internal/gemini"
	"github.com/afroash/blackice/internal/metrics"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.AppConfig
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.AppConfig, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.LoadAppConfig(path)
	})
	return c.config, c.configErr
}

// geminiClient builds the provider client from the loaded configuration
func (c *commandContext) geminiClient(ctx context.Context, logger zerolog.Logger, m *metrics.Metrics) *gemini.Client {
	return gemini.New(ctx, gemini.Config{
		APIKey:  c.config.Gemini.APIKey,
		BaseURL: c.config.Gemini.BaseURL,
		Timeout: c.config.Gemini.Timeout,
	}, logger, m)
}

// classifier builds the classification pipeline on top of client
func (c *commandContext) classifier(client *gemini.Client, logger zerolog.Logger, m *metrics.Metrics) *classifier.Classifier {
	return classifier.New(client, classifier.Options{
		Model:        c.config.Gemini.Model,
		StrictSchema: c.config.Gemini.StrictSchema,
	}, logger, m)
}
