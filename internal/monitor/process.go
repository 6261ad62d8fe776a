// Package monitor holds the polling producers: process scans feeding the
// detection engine, plus filesystem and network observers.
package monitor

import (
	"context"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/hostwarden/hostwarden/internal/detect"
)

// ObservationHandler consumes one process observation.
type ObservationHandler func(ctx context.Context, obs detect.Observation)

// ProcessPoller re-scans the process table on a fixed interval and hands an
// observation to the handler for every newly appeared PID.
type ProcessPoller struct {
	interval time.Duration
	handle   ObservationHandler
	logger   *slog.Logger

	known map[int32]struct{}
}

// NewProcessPoller creates a poller. Pass nil for logger to disable logging.
func NewProcessPoller(interval time.Duration, handle ObservationHandler, logger *slog.Logger) *ProcessPoller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ProcessPoller{
		interval: interval,
		handle:   handle,
		logger:   logger,
		known:    make(map[int32]struct{}),
	}
}

// Run blocks until ctx is cancelled. The first scan seeds the known set so
// pre-existing processes are not re-reported as new.
func (p *ProcessPoller) Run(ctx context.Context) {
	if pids, err := process.PidsWithContext(ctx); err == nil {
		for _, pid := range pids {
			p.known[pid] = struct{}{}
		}
	}
	p.logger.Info("process monitor started", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("process monitor stopped")
			return
		case <-ticker.C:
			p.scan(ctx)
		}
	}
}

func (p *ProcessPoller) scan(ctx context.Context) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		p.logger.Warn("process enumeration failed", "error", err)
		return
	}

	current := make(map[int32]struct{}, len(pids))
	for _, pid := range pids {
		current[pid] = struct{}{}
		if _, seen := p.known[pid]; seen {
			continue
		}
		obs, ok := observe(ctx, pid)
		if !ok {
			continue
		}
		p.logger.Debug("new process",
			"pid", obs.PID, "name", obs.Name,
			"cpu", obs.CPUPercent, "memory_mb", obs.MemoryMB, "path", obs.Path)
		p.handle(ctx, obs)
	}
	p.known = current
}

// observe collects the observation fields for one PID. Returns ok=false when
// the process vanished or denied access before it could be read.
func observe(ctx context.Context, pid int32) (detect.Observation, bool) {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return detect.Observation{}, false
	}
	name, err := proc.NameWithContext(ctx)
	if err != nil {
		return detect.Observation{}, false
	}

	cpu, err := proc.CPUPercentWithContext(ctx)
	if err != nil {
		cpu = 0
	}
	var memMB float64
	if mi, err := proc.MemoryInfoWithContext(ctx); err == nil && mi != nil {
		memMB = float64(mi.RSS) / (1024 * 1024)
	}

	// Exe is unreadable for zombies and other users' processes; an absent
	// path is a signal the classifiers handle, not an error.
	path, err := proc.ExeWithContext(ctx)
	if err != nil {
		path = ""
	}

	return detect.Observation{
		PID:        pid,
		Name:       name,
		CPUPercent: round2(cpu),
		MemoryMB:   round2(memMB),
		Path:       path,
	}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
