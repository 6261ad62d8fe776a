// Package engine runs the detection pipeline: every observation gets both a
// verdict and a score, suspicious ones become persisted alerts, and armed
// high-level alerts trigger termination and notification.
package engine

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hostwarden/hostwarden/internal/alert"
	"github.com/hostwarden/hostwarden/internal/detect"
	"github.com/hostwarden/hostwarden/internal/notify"
	"github.com/hostwarden/hostwarden/internal/prevent"
)

// Terminator is the slice of prevent.Terminator the engine needs.
type Terminator interface {
	Terminate(pid int32) prevent.Result
}

// Engine evaluates observations and persists alerts. Safe for concurrent use
// by multiple monitor goroutines; the store serializes the only shared
// mutable state.
type Engine struct {
	eval        *detect.Evaluator
	scorer      *detect.Scorer
	store       alert.Store
	terminator  Terminator
	notifier    *notify.Notifier
	autoPrevent bool
	logger      *slog.Logger
}

// New wires the pipeline. terminator may be nil when auto-prevention is
// disarmed; notifier may be nil to disable notifications. Pass nil for
// logger to disable logging.
func New(eval *detect.Evaluator, scorer *detect.Scorer, store alert.Store, terminator Terminator, notifier *notify.Notifier, autoPrevent bool, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		eval:        eval,
		scorer:      scorer,
		store:       store,
		terminator:  terminator,
		notifier:    notifier,
		autoPrevent: autoPrevent,
		logger:      logger,
	}
}

// Handle classifies one observation. Verdict and score are always computed
// together so every alert carries both; the scorer deliberately does not
// inherit the evaluator's trusted-path and helper bypasses.
func (e *Engine) Handle(ctx context.Context, obs detect.Observation) {
	verdict := e.eval.Evaluate(obs)
	score := e.scorer.Score(obs)

	if verdict.Degraded {
		e.logger.Error("verdict degraded to fail-open default", "pid", obs.PID, "name", obs.Name, "cause", verdict.Cause)
	}
	if score.Degraded {
		e.logger.Error("score degraded to fail-safe zero", "pid", obs.PID, "name", obs.Name, "cause", score.Cause)
	}

	if !verdict.Suspicious {
		e.logger.Debug("observation benign", "pid", obs.PID, "name", obs.Name, "rule", verdict.Rule, "score", score.Value)
		return
	}

	v := score.Value
	a := alert.Alert{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		PID:         obs.PID,
		Name:        obs.Name,
		CPUPercent:  obs.CPUPercent,
		MemoryMB:    obs.MemoryMB,
		Path:        obs.Path,
		ThreatLevel: score.Level,
		ThreatScore: &v,
	}

	e.logger.Warn("suspicious process detected",
		"pid", a.PID, "name", a.Name, "rule", verdict.Rule,
		"score", score.Value, "level", score.Level, "path", obs.Path)

	if err := e.store.Append(ctx, a); err != nil {
		e.logger.Error("alert persist failed", "pid", a.PID, "name", a.Name, "error", err)
	}

	if e.autoPrevent && score.Level == alert.LevelHigh && e.terminator != nil {
		res := e.terminator.Terminate(obs.PID)
		e.logger.Info("auto-prevention invoked", "pid", obs.PID, "outcome", res.Outcome)
	}

	if e.notifier != nil {
		e.notifier.Notify(ctx, a)
	}
}
