package classify

import "strings"

// NameClassifier matches process names against known benign helper-process
// patterns (browser renderer/GPU children, OS indexing daemons).
type NameClassifier struct {
	patterns []string
}

// NewNameClassifier builds a classifier over the given substring patterns.
func NewNameClassifier(patterns []string) *NameClassifier {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p != "" {
			out = append(out, p)
		}
	}
	return &NameClassifier{patterns: out}
}

// KnownHelper reports whether name contains any helper pattern. An empty
// name never matches.
func (c *NameClassifier) KnownHelper(name string) bool {
	if name == "" {
		return false
	}
	for _, p := range c.patterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}
