// Package detect implements the suspicion evaluator and the threat scorer.
//
// The evaluator is an ordered, first-match-wins rule chain producing a
// boolean verdict; the scorer is an independent additive function producing
// a 0-100 risk score. The two deliberately disagree on trusted-path and
// helper-name bypasses: a process the evaluator waves through can still
// carry a nonzero score.
package detect

// Observation is one snapshot of a process's identity and resource usage,
// supplied by a monitor. Immutable per call.
type Observation struct {
	PID        int32
	Name       string
	CPUPercent float64
	MemoryMB   float64

	// Path is the absolute executable path, or empty when unknown or
	// inaccessible.
	Path string
}
