package detect

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/hostwarden/hostwarden/internal/alert"
	"github.com/hostwarden/hostwarden/internal/classify"
	"github.com/hostwarden/hostwarden/internal/whitelist"
)

// Additive scoring weights. The raw sum can reach 140; Score clamps to 100.
const (
	weightSuspiciousPath = 40
	weightNotWhitelisted = 30
	weightMissingPath    = 20
	weightCPUOver        = 30
	weightMemoryOver     = 20

	maxScore = 100
)

// Score is the scorer's result for one observation.
type Score struct {
	Value int
	Level alert.Level

	// Degraded is set when an internal fault forced the fail-safe zero.
	Degraded bool
	Cause    error
}

// Scorer computes an additive 0-100 risk score. It shares the path
// classifier and whitelist with the evaluator but intentionally ignores the
// evaluator's trusted-path and known-helper bypasses, so a process deemed
// benign by the chain can still score high.
type Scorer struct {
	paths        *classify.PathClassifier
	wl           *whitelist.Cache
	cpuThreshold float64
	memThreshold float64
	highCutoff   int
	mediumCutoff int
	logger       *slog.Logger
}

// NewScorer builds a scorer with the given thresholds and level cutoffs.
// Pass nil for logger to disable logging.
func NewScorer(paths *classify.PathClassifier, wl *whitelist.Cache, cpuThreshold, memThresholdMB float64, highCutoff, mediumCutoff int, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scorer{
		paths:        paths,
		wl:           wl,
		cpuThreshold: cpuThreshold,
		memThreshold: memThresholdMB,
		highCutoff:   highCutoff,
		mediumCutoff: mediumCutoff,
		logger:       logger,
	}
}

// Score sums the weight of every condition that holds and clamps to 100. It
// never panics: an unexpected fault yields a Degraded zero score, logged at
// error level.
func (s *Scorer) Score(obs Observation) (sc Score) {
	defer func() {
		if r := recover(); r != nil {
			sc = Score{Value: 0, Level: s.LevelFor(0), Degraded: true, Cause: fmt.Errorf("score: %v", r)}
			s.logger.Error("scorer fault, failing safe", "pid", obs.PID, "name", obs.Name, "cause", sc.Cause)
		}
	}()

	wl := s.wl.Load()

	sum := 0
	if s.paths.Suspicious(obs.Path) {
		sum += weightSuspiciousPath
	}
	if !wl.Contains(obs.Name) {
		sum += weightNotWhitelisted
	}
	if obs.Path == "" {
		sum += weightMissingPath
	}
	if obs.CPUPercent > s.cpuThreshold {
		sum += weightCPUOver
	}
	if obs.MemoryMB > s.memThreshold {
		sum += weightMemoryOver
	}
	if sum > maxScore {
		sum = maxScore
	}
	return Score{Value: sum, Level: s.LevelFor(sum)}
}

// LevelFor buckets a score using inclusive cutoffs: score >= high is high,
// score >= medium is medium, everything below is low.
func (s *Scorer) LevelFor(score int) alert.Level {
	switch {
	case score >= s.highCutoff:
		return alert.LevelHigh
	case score >= s.mediumCutoff:
		return alert.LevelMedium
	default:
		return alert.LevelLow
	}
}

// Enrich back-fills score and level on a legacy alert from its own fields.
// Used as the store's read-side enricher; already-scored records are left
// untouched.
func (s *Scorer) Enrich(a *alert.Alert) {
	if a.Scored() {
		return
	}
	sc := s.Score(Observation{
		PID:        a.PID,
		Name:       a.Name,
		CPUPercent: a.CPUPercent,
		MemoryMB:   a.MemoryMB,
		Path:       a.Path,
	})
	v := sc.Value
	a.ThreatScore = &v
	a.ThreatLevel = sc.Level
}
