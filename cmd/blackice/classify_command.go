package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/afroash/blackice/internal/metrics"
	"github.com/afroash/blackice/internal/models"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var (
		temperature float64
		humidity    float64
		wetness     float64
		useLatest   bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify one set of sensor values and print the result as JSON",
		Long: "Classify one set of sensor values and print the result as JSON.\n\n" +
			"Values not given on the command line are sent as undefined, the same as\n" +
			"fields missing from a POST /api/ai body. --latest classifies the\n" +
			"configured reading source's current values instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Logging, os.Stderr)
			if err != nil {
				return err
			}

			var reading models.SensorReading
			if useLatest {
				readings, closeReadings, err := openReadings(cfg.Readings, logger)
				if err != nil {
					return err
				}
				defer closeReadings()

				latest, err := readings.Latest(cmd.Context())
				if err != nil {
					return err
				}
				reading = latest.SensorReading()
			} else {
				flags := cmd.Flags()
				if flags.Changed("temperature") {
					reading.Temperature = models.Number(temperature)
				}
				if flags.Changed("humidity") {
					reading.Humidity = models.Number(humidity)
				}
				if flags.Changed("wetness") {
					reading.WetnessRaw = models.Number(wetness)
				}
			}

			m := metrics.New()
			client := ctx.geminiClient(cmd.Context(), logger, m)
			result, classifyErr := ctx.classifier(client, logger, m).Classify(cmd.Context(), reading)
			if err := writeJSON(cmd, result); err != nil {
				return err
			}
			return classifyErr
		},
	}

	cmd.Flags().Float64VarP(&temperature, "temperature", "t", 0, "Road temperature in °C")
	cmd.Flags().Float64VarP(&humidity, "humidity", "u", 0, "Relative humidity in %")
	cmd.Flags().Float64VarP(&wetness, "wetness", "w", 0, "Raw wetness sensor value (0-4095)")
	cmd.Flags().BoolVar(&useLatest, "latest", false, "Classify the latest reading from the configured source")
	cmd.MarkFlagsMutuallyExclusive("latest", "temperature")
	cmd.MarkFlagsMutuallyExclusive("latest", "humidity")
	cmd.MarkFlagsMutuallyExclusive("latest", "wetness")

	return cmd
}
