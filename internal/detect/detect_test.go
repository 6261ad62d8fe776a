package detect

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hostwarden/hostwarden/internal/classify"
	"github.com/hostwarden/hostwarden/internal/whitelist"
)

// testEnv builds an evaluator and scorer sharing one whitelist and one path
// classifier, with the default thresholds (cpu 85, mem 800) and cutoffs
// (high 70, medium 30).
type testEnv struct {
	eval   *Evaluator
	scorer *Scorer
	dir    string
}

func newTestEnv(t *testing.T, trusted, suspicious, whitelisted []string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	wlPath := filepath.Join(dir, "whitelist.json")
	b, err := json.Marshal(map[string][]string{"whitelist": whitelisted})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(wlPath, b, 0o644))

	paths, err := classify.NewPathClassifier(trusted, suspicious)
	require.NoError(t, err)
	names := classify.NewNameClassifier([]string{"Helper", "Renderer", "GPU", "WebKit", "mdworker"})
	wl := whitelist.NewCache(wlPath, nil)

	return &testEnv{
		eval:   NewEvaluator(paths, names, wl, 85, 800, nil),
		scorer: NewScorer(paths, wl, 85, 800, 70, 30, nil),
		dir:    dir,
	}
}

// executable creates a readable file outside any configured suspicious or
// trusted directory and returns its path.
func (e *testEnv) executable(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func fakeSuspiciousRoot() string { return "/hostwarden-test-suspicious/" }

// suspiciousDirs returns dirs that never collide with t.TempDir.
func suspiciousDirs(extra ...string) []string {
	return append([]string{fakeSuspiciousRoot()}, extra...)
}
