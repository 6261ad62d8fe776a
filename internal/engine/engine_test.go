package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostwarden/hostwarden/internal/alert"
	"github.com/hostwarden/hostwarden/internal/classify"
	"github.com/hostwarden/hostwarden/internal/detect"
	"github.com/hostwarden/hostwarden/internal/prevent"
	"github.com/hostwarden/hostwarden/internal/whitelist"
)

type memStore struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (m *memStore) Append(_ context.Context, a alert.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, a)
	return nil
}

func (m *memStore) ReadAll(context.Context) ([]alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]alert.Alert(nil), m.alerts...), nil
}

func (m *memStore) ExportCSV(context.Context, string) (string, error) { return "", nil }
func (m *memStore) Close() error                                      { return nil }

type fakeTerminator struct {
	pids []int32
}

func (f *fakeTerminator) Terminate(pid int32) prevent.Result {
	f.pids = append(f.pids, pid)
	return prevent.Result{Outcome: prevent.OutcomeTerminated}
}

func newPipeline(t *testing.T, store alert.Store, term Terminator, autoPrevent bool) *Engine {
	t.Helper()

	wlPath := filepath.Join(t.TempDir(), "whitelist.json")
	b, err := json.Marshal(map[string][]string{"whitelist": {"bash"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(wlPath, b, 0o644))

	paths, err := classify.NewPathClassifier([]string{"/usr/"}, []string{"/hostwarden-test-suspicious/"})
	require.NoError(t, err)
	names := classify.NewNameClassifier([]string{"Helper"})
	wl := whitelist.NewCache(wlPath, nil)

	eval := detect.NewEvaluator(paths, names, wl, 85, 800, nil)
	scorer := detect.NewScorer(paths, wl, 85, 800, 70, 30, nil)
	return New(eval, scorer, store, term, nil, autoPrevent, nil)
}

func TestSuspiciousObservationIsPersistedWithScore(t *testing.T) {
	store := &memStore{}
	eng := newPipeline(t, store, nil, false)

	eng.Handle(context.Background(), detect.Observation{
		PID: 42, Name: "evil_proc", Path: "/hostwarden-test-suspicious/evil", CPUPercent: 95, MemoryMB: 900,
	})

	require.Len(t, store.alerts, 1)
	a := store.alerts[0]
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.Timestamp.IsZero())
	assert.Equal(t, int32(42), a.PID)
	assert.Equal(t, "evil_proc", a.Name)
	require.NotNil(t, a.ThreatScore)
	assert.Equal(t, 100, *a.ThreatScore)
	assert.Equal(t, alert.LevelHigh, a.ThreatLevel)
}

func TestBenignObservationIsNotPersisted(t *testing.T) {
	store := &memStore{}
	eng := newPipeline(t, store, nil, false)

	// Trusted path: the evaluator waves it through even though the scorer
	// would assign it a nonzero score.
	eng.Handle(context.Background(), detect.Observation{
		PID: 7, Name: "top", Path: "/usr/bin/top", CPUPercent: 99, MemoryMB: 50,
	})
	assert.Empty(t, store.alerts)
}

func TestAutoPreventionTerminatesHighLevel(t *testing.T) {
	store := &memStore{}
	term := &fakeTerminator{}
	eng := newPipeline(t, store, term, true)

	eng.Handle(context.Background(), detect.Observation{
		PID: 99, Name: "evil_proc", Path: "/hostwarden-test-suspicious/evil", CPUPercent: 95, MemoryMB: 900,
	})

	require.Len(t, store.alerts, 1)
	assert.Equal(t, []int32{99}, term.pids)
}

func TestAutoPreventionSkipsNonHigh(t *testing.T) {
	store := &memStore{}
	term := &fakeTerminator{}
	eng := newPipeline(t, store, term, true)

	// Whitelisted name in a suspicious dir: suspicious, but score 40 is
	// medium, below the termination bar.
	eng.Handle(context.Background(), detect.Observation{
		PID: 5, Name: "bash", Path: "/hostwarden-test-suspicious/bash",
	})

	require.Len(t, store.alerts, 1)
	assert.Equal(t, alert.LevelMedium, store.alerts[0].ThreatLevel)
	assert.Empty(t, term.pids)
}

func TestAutoPreventionDisarmed(t *testing.T) {
	store := &memStore{}
	term := &fakeTerminator{}
	eng := newPipeline(t, store, term, false)

	eng.Handle(context.Background(), detect.Observation{
		PID: 99, Name: "evil_proc", Path: "/hostwarden-test-suspicious/evil", CPUPercent: 95, MemoryMB: 900,
	})

	require.Len(t, store.alerts, 1)
	assert.Empty(t, term.pids, "disarmed prevention never terminates")
}
