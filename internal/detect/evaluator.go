package detect

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/hostwarden/hostwarden/internal/classify"
	"github.com/hostwarden/hostwarden/internal/whitelist"
)

// Verdict is the evaluator's decision for one observation.
type Verdict struct {
	Suspicious bool

	// Rule names the tier that decided, for audit logs and tests.
	Rule string

	// Degraded is set when an internal fault forced the fail-open default.
	Degraded bool
	Cause    error
}

// Rule tier names, in priority order.
const (
	RuleTrustedPath    = "trusted_path"
	RuleKnownHelper    = "known_helper"
	RuleAccessibleSafe = "accessible_safe_location"
	RuleSuspiciousPath = "suspicious_path"
	RuleTrustGuard     = "whitelist_trust_guard"
	RuleThresholds     = "resource_thresholds"
)

// rule is one tier of the chain. decided=false falls through to the next
// tier; decided=true ends evaluation with the given verdict.
type rule struct {
	name   string
	decide func(obs Observation, wl *whitelist.Snapshot) (suspicious, decided bool)
}

// Evaluator classifies observations as suspicious or benign using a
// priority-ordered rule chain. An earlier tier's match short-circuits all
// later tiers; the order is fixed at construction and auditable via
// Verdict.Rule.
type Evaluator struct {
	rules  []rule
	wl     *whitelist.Cache
	logger *slog.Logger
}

// NewEvaluator wires the classifier dependencies into the rule chain.
// Pass nil for logger to disable logging.
func NewEvaluator(paths *classify.PathClassifier, names *classify.NameClassifier, wl *whitelist.Cache, cpuThreshold, memThresholdMB float64, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	overThreshold := func(obs Observation) bool {
		return obs.CPUPercent > cpuThreshold || obs.MemoryMB > memThresholdMB
	}

	rules := []rule{
		{
			// Executables under trusted directories are never flagged,
			// regardless of resource usage or whitelist membership.
			name: RuleTrustedPath,
			decide: func(obs Observation, _ *whitelist.Snapshot) (bool, bool) {
				if paths.Trusted(obs.Path) {
					return false, true
				}
				return false, false
			},
		},
		{
			// Renderer/GPU/WebKit/indexer helpers are legitimate children
			// of browsers and OS daemons, wherever they run from.
			name: RuleKnownHelper,
			decide: func(obs Observation, _ *whitelist.Snapshot) (bool, bool) {
				if names.KnownHelper(obs.Name) {
					return false, true
				}
				return false, false
			},
		},
		{
			// A readable executable in a non-suspicious location with a
			// whitelisted name is benign unless its resource usage spikes.
			// Non-whitelisted names fall through to the later tiers.
			name: RuleAccessibleSafe,
			decide: func(obs Observation, wl *whitelist.Snapshot) (bool, bool) {
				if classify.Accessible(obs.Path) && !paths.Suspicious(obs.Path) && wl.Contains(obs.Name) {
					return overThreshold(obs), true
				}
				return false, false
			},
		},
		{
			// Execution from temp dirs or Downloads is always suspicious.
			// A missing path lands here too.
			name: RuleSuspiciousPath,
			decide: func(obs Observation, _ *whitelist.Snapshot) (bool, bool) {
				if paths.Suspicious(obs.Path) {
					return true, true
				}
				return false, false
			},
		},
		{
			// Unknown name outside trusted directories.
			name: RuleTrustGuard,
			decide: func(obs Observation, wl *whitelist.Snapshot) (bool, bool) {
				if !wl.Contains(obs.Name) && !paths.Trusted(obs.Path) {
					return true, true
				}
				return false, false
			},
		},
		{
			// A known-good process that spikes CPU or RAM is still worth
			// flagging (possible injection or cryptominer behavior).
			name: RuleThresholds,
			decide: func(obs Observation, _ *whitelist.Snapshot) (bool, bool) {
				return overThreshold(obs), true
			},
		},
	}

	return &Evaluator{rules: rules, wl: wl, logger: logger}
}

// Evaluate runs the rule chain over one observation. It never panics: an
// unexpected fault yields a Degraded not-suspicious verdict, logged at error
// level, so one bad evaluation cannot disrupt monitoring.
func (e *Evaluator) Evaluate(obs Observation) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			v = Verdict{Suspicious: false, Degraded: true, Cause: fmt.Errorf("evaluate: %v", r)}
			e.logger.Error("evaluator fault, failing open", "pid", obs.PID, "name", obs.Name, "cause", v.Cause)
		}
	}()

	wl := e.wl.Load()
	for _, r := range e.rules {
		if suspicious, decided := r.decide(obs, wl); decided {
			return Verdict{Suspicious: suspicious, Rule: r.name}
		}
	}
	// The threshold tier always decides; this is unreachable in practice.
	return Verdict{Suspicious: false, Rule: RuleThresholds}
}
