package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/afroash/blackice/internal/metrics"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models available to the configured API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Logging, os.Stderr)
			if err != nil {
				return err
			}

			client := ctx.geminiClient(cmd.Context(), logger, metrics.New())
			names, err := client.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("listModels failed: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, names)
			}

			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No models available")
				return nil
			}

			rows := make([][]string, 0, len(names))
			for i, name := range names {
				marker := ""
				if name == cfg.Gemini.Model || name == "models/"+cfg.Gemini.Model {
					marker = "*"
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), name, marker})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Model", "Configured"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the names as a JSON array")

	return cmd
}
