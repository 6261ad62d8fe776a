// Package alert defines the persisted alert record and the store contract
// shared by the detection pipeline, the export command, and the dashboard.
package alert

import (
	"time"
)

// Level buckets a threat score into a severity tier.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"

	// LevelUnknown marks legacy records written before scoring existed.
	// ReadAll enriches these on the fly; they never survive enrichment.
	LevelUnknown Level = "unknown"
)

// Alert is one persisted detection. Records are append-only: after Append the
// only permitted change is read-side enrichment of a missing score/level.
type Alert struct {
	ID         string    `json:"id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	PID        int32     `json:"pid"`
	Name       string    `json:"name"`
	CPUPercent float64   `json:"cpu"`
	MemoryMB   float64   `json:"memory"`

	// Path is the executable path of the offending process. Empty means the
	// path was unknown or inaccessible at observation time.
	Path string `json:"path,omitempty"`

	ThreatLevel Level `json:"threat_level,omitempty"`

	// ThreatScore is nil on legacy records pending enrichment.
	ThreatScore *int `json:"threat_score,omitempty"`
}

// Scored reports whether the record already carries a score and level.
func (a Alert) Scored() bool {
	return a.ThreatScore != nil && a.ThreatLevel != "" && a.ThreatLevel != LevelUnknown
}

// Enricher back-fills score and level on a legacy record from the record's
// own fields. Injected by the caller so stores stay decoupled from the
// scoring rules.
type Enricher func(a *Alert)

// Stats is a derived, read-only summary over a slice of alerts.
type Stats struct {
	Total   int           `json:"total"`
	ByLevel map[Level]int `json:"by_level"`
	Latest  time.Time     `json:"latest,omitempty"`
}

// Summarize computes summary statistics for the given alerts. The level of
// unscored records counts as LevelUnknown; callers wanting enriched counts
// should pass the result of ReadAll.
func Summarize(alerts []Alert) Stats {
	st := Stats{ByLevel: make(map[Level]int)}
	for _, a := range alerts {
		st.Total++
		lvl := a.ThreatLevel
		if lvl == "" {
			lvl = LevelUnknown
		}
		st.ByLevel[lvl]++
		if a.Timestamp.After(st.Latest) {
			st.Latest = a.Timestamp
		}
	}
	return st
}
