// Package jsonfile persists alerts as a human-readable JSON array, the
// format consumed by the dashboard and export tooling.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/hostwarden/hostwarden/internal/alert"
)

// Store is a concurrency-safe append-only alert store over a single JSON
// file. One mutex spans the whole read-modify-write of Append, so two
// concurrent appends within this process never interleave on disk. A second
// agent instance writing the same file is not protected against; single
// instance per host is an operational constraint.
type Store struct {
	path   string
	enrich alert.Enricher
	logger *slog.Logger

	mu sync.Mutex
}

// New creates a store over path. enrich back-fills score/level on legacy
// records during ReadAll; pass nil to disable enrichment. Pass nil for
// logger to disable logging.
func New(path string, enrich alert.Enricher, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("alert file path is empty")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir alert dir: %w", err)
	}
	return &Store{path: path, enrich: enrich, logger: logger}, nil
}

// Append persists one alert. If the existing file is missing or corrupt the
// prior records are treated as empty (logged as a warning); the new alert is
// never lost.
func (s *Store) Append(_ context.Context, a alert.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts, err := s.readLocked()
	if err != nil {
		s.logger.Warn("alert file unreadable, starting fresh", "path", s.path, "error", err)
		alerts = nil
	}
	alerts = append(alerts, a)
	return s.writeLocked(alerts)
}

// ReadAll returns every persisted alert in insertion order. Records missing
// a score or level are enriched in memory; the file is not rewritten.
func (s *Store) ReadAll(_ context.Context) ([]alert.Alert, error) {
	s.mu.Lock()
	alerts, err := s.readLocked()
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("alert file unreadable", "path", s.path, "error", err)
		return nil, nil
	}
	if s.enrich != nil {
		for i := range alerts {
			s.enrich(&alerts[i])
		}
	}
	return alerts, nil
}

// ExportCSV snapshots the raw collection to dest and returns the absolute
// output path.
func (s *Store) ExportCSV(_ context.Context, dest string) (string, error) {
	s.mu.Lock()
	alerts, err := s.readLocked()
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("alert file unreadable, exporting empty snapshot", "path", s.path, "error", err)
		alerts = nil
	}
	return alert.WriteCSV(dest, alerts)
}

func (s *Store) Close() error { return nil }

func (s *Store) readLocked() ([]alert.Alert, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read alerts: %w", err)
	}
	if len(b) == 0 {
		return nil, nil
	}
	var alerts []alert.Alert
	if err := json.Unmarshal(b, &alerts); err != nil {
		return nil, fmt.Errorf("parse alerts: %w", err)
	}
	return alerts, nil
}

// writeLocked replaces the file through a temp-file rename so a crash
// mid-write never leaves a torn JSON array behind.
func (s *Store) writeLocked(alerts []alert.Alert) error {
	b, err := json.MarshalIndent(alerts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal alerts: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write alerts: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace alerts: %w", err)
	}
	return nil
}
