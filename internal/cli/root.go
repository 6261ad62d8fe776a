// Package cli wires the hostwarden commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hostwarden/hostwarden/internal/config"
)

// NewRoot builds the root command.
func NewRoot(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hostwarden",
		Short:         "Host-based heuristic threat-detection agent",
		Long:          "hostwarden watches processes, files, and network connections on a single host\nand flags suspicious processes using a priority-ordered rule chain.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "path to config file (defaults apply when omitted)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}

// loadConfig resolves the --config flag; an empty flag yields the built-in
// defaults plus environment overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// newLogger builds the process-wide slog.Logger from the logging config.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
