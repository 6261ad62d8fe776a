package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hostwarden/hostwarden/internal/alert"
	"github.com/hostwarden/hostwarden/internal/alert/jsonfile"
	"github.com/hostwarden/hostwarden/internal/alert/sqlite"
	"github.com/hostwarden/hostwarden/internal/api"
	"github.com/hostwarden/hostwarden/internal/classify"
	"github.com/hostwarden/hostwarden/internal/config"
	"github.com/hostwarden/hostwarden/internal/detect"
	"github.com/hostwarden/hostwarden/internal/engine"
	"github.com/hostwarden/hostwarden/internal/monitor"
	"github.com/hostwarden/hostwarden/internal/notify"
	"github.com/hostwarden/hostwarden/internal/prevent"
	"github.com/hostwarden/hostwarden/internal/whitelist"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the monitors and the alerts dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runAgent(cmd.Context(), cfg)
		},
	}
}

func runAgent(parent context.Context, cfg *config.Config) error {
	logger := newLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	paths, err := classify.NewPathClassifier(cfg.Detection.TrustedDirs, cfg.Detection.SuspiciousDirs)
	if err != nil {
		return err
	}
	names := classify.NewNameClassifier(cfg.Detection.HelperPatterns)
	wl := whitelist.NewCache(cfg.Whitelist.Path, logger)

	eval := detect.NewEvaluator(paths, names, wl, cfg.Detection.CPUThresholdPercent, cfg.Detection.MemoryThresholdMB, logger)
	scorer := detect.NewScorer(paths, wl, cfg.Detection.CPUThresholdPercent, cfg.Detection.MemoryThresholdMB, cfg.Scoring.HighCutoff, cfg.Scoring.MediumCutoff, logger)

	store, err := openStore(cfg, scorer.Enrich, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var notifier *notify.Notifier
	if cfg.Email.Enabled {
		notifier = notify.New(true, notify.NewSMTPSender(cfg.Email), logger)
	}

	eng := engine.New(eval, scorer, store, prevent.NewTerminator(logger), notifier, cfg.Prevention.AutoTerminate, logger)

	var wg sync.WaitGroup

	if !cfg.Monitors.Process.Disabled {
		poller := monitor.NewProcessPoller(cfg.ProcessInterval(), eng.Handle, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
	}

	if !cfg.Monitors.File.Disabled {
		watcher, err := monitor.NewFileWatcher(cfg.Monitors.File.Root, logger)
		if err != nil {
			logger.Warn("file monitor not started", "error", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := watcher.Run(ctx); err != nil {
					logger.Error("file monitor exited", "error", err)
				}
			}()
		}
	}

	if !cfg.Monitors.Network.Disabled {
		poller := monitor.NewNetworkPoller(cfg.NetworkInterval(), logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
	}

	var srv *http.Server
	if !cfg.Dashboard.Disabled {
		srv = &http.Server{
			Addr:              cfg.Dashboard.Addr,
			Handler:           api.NewApp(store, logger).Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("dashboard listening", "addr", cfg.Dashboard.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("dashboard exited", "error", err)
			}
		}()
	}

	logger.Info("hostwarden running", "auto_prevention", cfg.Prevention.AutoTerminate)
	<-ctx.Done()
	logger.Info("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}
	wg.Wait()
	return nil
}

func openStore(cfg *config.Config, enrich alert.Enricher, logger *slog.Logger) (alert.Store, error) {
	switch cfg.Alerts.Backend {
	case "sqlite":
		s, err := sqlite.Open(cfg.Alerts.SQLitePath, enrich)
		if err != nil {
			return nil, fmt.Errorf("open alert db: %w", err)
		}
		return s, nil
	default:
		s, err := jsonfile.New(cfg.Alerts.Path, enrich, logger)
		if err != nil {
			return nil, fmt.Errorf("open alert file: %w", err)
		}
		return s, nil
	}
}
