// Package whitelist maintains the set of trusted process names, reloaded
// from disk only when the backing file's modification time changes.
package whitelist

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is an immutable view of the whitelist at one load. Readers hold a
// snapshot for the duration of an evaluation so the set cannot change
// underneath them.
type Snapshot struct {
	names   map[string]struct{}
	modTime time.Time
}

// Contains reports whether name is trusted.
func (s *Snapshot) Contains(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.names[name]
	return ok
}

// Len returns the number of trusted names.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Cache loads the whitelist file lazily and memoizes it by modification
// time. Loads never fail the caller: on any read or parse error the previous
// snapshot (initially empty) is returned unchanged.
type Cache struct {
	path   string
	logger *slog.Logger

	// reload is held only while re-reading the file, so a slow reload never
	// blocks readers and a stale concurrent reload cannot overwrite a
	// fresher snapshot.
	reload sync.Mutex
	cur    atomic.Pointer[Snapshot]
}

// NewCache creates a cache over the given whitelist file. Pass nil for
// logger to disable logging.
func NewCache(path string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Cache{path: path, logger: logger}
	c.cur.Store(&Snapshot{names: map[string]struct{}{}})
	return c
}

// whitelistFile is the on-disk format: {"whitelist": ["bash", ...]}.
type whitelistFile struct {
	Whitelist []string `json:"whitelist"`
}

// Load returns the current snapshot, re-reading the file first if its
// modification time differs from the last successful read.
func (c *Cache) Load() *Snapshot {
	cur := c.cur.Load()

	st, err := os.Stat(c.path)
	if err != nil {
		c.logger.Warn("whitelist unavailable, using cached set", "path", c.path, "error", err)
		return cur
	}
	if st.ModTime().Equal(cur.modTime) {
		return cur
	}

	c.reload.Lock()
	defer c.reload.Unlock()

	// Another goroutine may have finished the reload while we waited.
	cur = c.cur.Load()
	if st.ModTime().Equal(cur.modTime) {
		return cur
	}

	b, err := os.ReadFile(c.path)
	if err != nil {
		c.logger.Warn("whitelist read failed, using cached set", "path", c.path, "error", err)
		return cur
	}
	var wf whitelistFile
	if err := json.Unmarshal(b, &wf); err != nil {
		c.logger.Warn("whitelist parse failed, using cached set", "path", c.path, "error", err)
		return cur
	}

	names := make(map[string]struct{}, len(wf.Whitelist))
	for _, n := range wf.Whitelist {
		if n != "" {
			names[n] = struct{}{}
		}
	}
	next := &Snapshot{names: names, modTime: st.ModTime()}
	c.cur.Store(next)
	c.logger.Debug("whitelist reloaded", "path", c.path, "names", len(names))
	return next
}
