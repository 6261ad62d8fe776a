package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gnet "github.com/shirou/gopsutil/v4/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostwarden/hostwarden/internal/detect"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.2345))
	assert.Equal(t, 1.24, round2(1.2399))
	assert.Equal(t, 0.0, round2(0))
	assert.Equal(t, 100.0, round2(99.999))
}

func TestFormatAddr(t *testing.T) {
	assert.Equal(t, "10.0.0.5:443", formatAddr(gnet.Addr{IP: "10.0.0.5", Port: 443}))
	assert.Equal(t, "n/a", formatAddr(gnet.Addr{}))
}

func TestObserveSelf(t *testing.T) {
	obs, ok := observe(context.Background(), int32(os.Getpid()))
	require.True(t, ok)
	assert.Equal(t, int32(os.Getpid()), obs.PID)
	assert.NotEmpty(t, obs.Name)
	assert.GreaterOrEqual(t, obs.MemoryMB, 0.0)
}

func TestObserveMissingPID(t *testing.T) {
	_, ok := observe(context.Background(), 1<<31-2)
	assert.False(t, ok)
}

func TestProcessPollerSeedsThenStops(t *testing.T) {
	var handled []detect.Observation
	p := NewProcessPoller(10*time.Millisecond, func(_ context.Context, obs detect.Observation) {
		handled = append(handled, obs)
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	// The seed scan means our own process never shows up as "new".
	for _, obs := range handled {
		assert.NotEqual(t, int32(os.Getpid()), obs.PID)
	}
}

func TestNewProcessPollerDefaultInterval(t *testing.T) {
	p := NewProcessPoller(0, nil, nil)
	assert.Equal(t, 2*time.Second, p.interval)
}

func TestNewNetworkPollerDefaultInterval(t *testing.T) {
	n := NewNetworkPoller(-time.Second, nil)
	assert.Equal(t, 5*time.Second, n.interval)
}

func TestNetworkScanAgesOutConnections(t *testing.T) {
	n := NewNetworkPoller(time.Second, nil)
	n.known[connKey{pid: 1, local: "a", remote: "b"}] = struct{}{}

	// With no connections visible the known set resets, so a reappearing
	// connection would be reported again.
	n.scan(context.Background())
	assert.Empty(t, n.known)
}

func TestNewFileWatcherMissingRoot(t *testing.T) {
	_, err := NewFileWatcher(filepath.Join(t.TempDir(), "nope"), nil)
	require.Error(t, err)
}

func TestNewFileWatcherRootIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := NewFileWatcher(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestFileWatcherStopsOnCancel(t *testing.T) {
	w, err := NewFileWatcher(t.TempDir(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
