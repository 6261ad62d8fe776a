package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostwarden/hostwarden/internal/classify"
	"github.com/hostwarden/hostwarden/internal/detect"
	"github.com/hostwarden/hostwarden/internal/whitelist"
)

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the alert log to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Logging)

			paths, err := classify.NewPathClassifier(cfg.Detection.TrustedDirs, cfg.Detection.SuspiciousDirs)
			if err != nil {
				return err
			}
			wl := whitelist.NewCache(cfg.Whitelist.Path, logger)
			scorer := detect.NewScorer(paths, wl, cfg.Detection.CPUThresholdPercent, cfg.Detection.MemoryThresholdMB, cfg.Scoring.HighCutoff, cfg.Scoring.MediumCutoff, logger)

			store, err := openStore(cfg, scorer.Enrich, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			path, err := store.ExportCSV(cmd.Context(), out)
			if err != nil {
				return fmt.Errorf("export alerts: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "alerts.csv", "output CSV path")
	return cmd
}
