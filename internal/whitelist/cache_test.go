package whitelist

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWhitelist(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitelist.json")
	writeWhitelist(t, path, `{"whitelist": ["bash", "sshd"]}`)

	c := NewCache(path, nil)
	snap := c.Load()
	assert.True(t, snap.Contains("bash"))
	assert.True(t, snap.Contains("sshd"))
	assert.False(t, snap.Contains("evil_proc"))
	assert.Equal(t, 2, snap.Len())
}

func TestMissingFileYieldsEmptySet(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "nope.json"), nil)
	snap := c.Load()
	assert.Equal(t, 0, snap.Len())
	assert.False(t, snap.Contains("bash"))
}

func TestParseErrorKeepsLastGood(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitelist.json")
	writeWhitelist(t, path, `{"whitelist": ["bash"]}`)

	c := NewCache(path, nil)
	require.True(t, c.Load().Contains("bash"))

	writeWhitelist(t, path, `{not json`)
	// Force a distinct mtime so the reload actually runs.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	snap := c.Load()
	assert.True(t, snap.Contains("bash"), "stale-but-valid cache expected after parse error")
}

func TestUnchangedMtimeSkipsReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitelist.json")
	writeWhitelist(t, path, `{"whitelist": ["bash"]}`)

	c := NewCache(path, nil)
	first := c.Load()
	require.True(t, first.Contains("bash"))

	st, err := os.Stat(path)
	require.NoError(t, err)

	// Change the bytes but restore the mtime: the cache must not notice.
	writeWhitelist(t, path, `{"whitelist": ["zsh"]}`)
	require.NoError(t, os.Chtimes(path, st.ModTime(), st.ModTime()))

	snap := c.Load()
	assert.True(t, snap.Contains("bash"))
	assert.False(t, snap.Contains("zsh"))
}

func TestMtimeChangeTriggersReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitelist.json")
	writeWhitelist(t, path, `{"whitelist": ["bash"]}`)

	c := NewCache(path, nil)
	require.True(t, c.Load().Contains("bash"))

	writeWhitelist(t, path, `{"whitelist": ["zsh"]}`)
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	snap := c.Load()
	assert.True(t, snap.Contains("zsh"))
	assert.False(t, snap.Contains("bash"))
}

func TestConcurrentLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitelist.json")
	writeWhitelist(t, path, `{"whitelist": ["bash"]}`)

	c := NewCache(path, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap := c.Load()
				assert.True(t, snap.Contains("bash"))
			}
		}()
	}
	wg.Wait()
}

func TestNilSnapshot(t *testing.T) {
	var snap *Snapshot
	assert.False(t, snap.Contains("bash"))
	assert.Equal(t, 0, snap.Len())
}
