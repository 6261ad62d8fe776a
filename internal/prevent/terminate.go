// Package prevent terminates flagged processes and classifies every OS-level
// failure mode into a fixed outcome taxonomy instead of surfacing errors.
package prevent

import (
	"io"
	"log/slog"
)

// Outcome classifies the result of a termination attempt.
type Outcome string

const (
	OutcomeTerminated   Outcome = "terminated"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeAccessDenied Outcome = "access_denied"
	OutcomeZombie       Outcome = "zombie"
	OutcomeOtherFailure Outcome = "other_failure"
)

// Result carries the outcome and, for failures, the underlying cause.
type Result struct {
	Outcome Outcome
	Detail  error
}

// Terminator attempts process termination. Terminate never returns an error
// and never panics; every failure maps to an Outcome.
type Terminator struct {
	logger *slog.Logger
}

// NewTerminator creates a terminator. Pass nil for logger to disable logging.
func NewTerminator(logger *slog.Logger) *Terminator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Terminator{logger: logger}
}

// Terminate sends the platform's graceful termination signal to pid and
// classifies the result.
func (t *Terminator) Terminate(pid int32) Result {
	res := terminate(pid)
	switch res.Outcome {
	case OutcomeTerminated:
		t.logger.Info("process terminated", "pid", pid)
	case OutcomeNotFound, OutcomeAccessDenied, OutcomeZombie:
		t.logger.Warn("process not terminated", "pid", pid, "outcome", res.Outcome, "detail", res.Detail)
	default:
		t.logger.Error("termination failed", "pid", pid, "detail", res.Detail)
	}
	return res
}
