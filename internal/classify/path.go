// Package classify holds the pure path and name classifiers consulted by the
// suspicion evaluator and the threat scorer.
package classify

import (
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
)

// pathMatcher matches one configured directory entry. Plain entries match by
// prefix; entries carrying glob metacharacters are compiled once.
type pathMatcher struct {
	prefix string
	glob   glob.Glob
}

func (m pathMatcher) matches(path string) bool {
	if m.glob != nil {
		return m.glob.Match(path)
	}
	return strings.HasPrefix(path, m.prefix)
}

func compileMatchers(entries []string) ([]pathMatcher, error) {
	out := make([]pathMatcher, 0, len(entries))
	for _, e := range entries {
		if e == "" {
			continue
		}
		if strings.ContainsAny(e, "*?[{") {
			g, err := glob.Compile(e, '/')
			if err != nil {
				return nil, fmt.Errorf("compile dir pattern %q: %w", e, err)
			}
			out = append(out, pathMatcher{glob: g})
			continue
		}
		out = append(out, pathMatcher{prefix: e})
	}
	return out, nil
}

// PathClassifier classifies executable paths against the configured trusted
// and suspicious directory lists. Instances are immutable and safe for
// concurrent use.
type PathClassifier struct {
	trusted    []pathMatcher
	suspicious []pathMatcher
	downloads  string
}

// NewPathClassifier compiles the configured directory lists. The current
// user's downloads directory is always treated as suspicious.
func NewPathClassifier(trustedDirs, suspiciousDirs []string) (*PathClassifier, error) {
	trusted, err := compileMatchers(trustedDirs)
	if err != nil {
		return nil, fmt.Errorf("trusted dirs: %w", err)
	}
	suspicious, err := compileMatchers(suspiciousDirs)
	if err != nil {
		return nil, fmt.Errorf("suspicious dirs: %w", err)
	}

	downloads := ""
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		downloads = home + "/Downloads/"
	}
	return &PathClassifier{trusted: trusted, suspicious: suspicious, downloads: downloads}, nil
}

// Trusted reports whether path falls under a trusted directory. An empty
// path is never trusted.
func (c *PathClassifier) Trusted(path string) bool {
	if path == "" {
		return false
	}
	for _, m := range c.trusted {
		if m.matches(path) {
			return true
		}
	}
	return false
}

// Suspicious reports whether path indicates execution from a high-risk
// location. A missing path is itself a suspicion signal.
func (c *PathClassifier) Suspicious(path string) bool {
	if path == "" {
		return true
	}
	for _, m := range c.suspicious {
		if m.matches(path) {
			return true
		}
	}
	if c.downloads != "" && strings.HasPrefix(path, c.downloads) {
		return true
	}
	return false
}

// Accessible reports whether path names an existing regular file readable by
// this process. Any OS-level error counts as not accessible.
func Accessible(path string) bool {
	if path == "" {
		return false
	}
	st, err := os.Stat(path)
	if err != nil || !st.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
