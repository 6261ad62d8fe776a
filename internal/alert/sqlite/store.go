// Package sqlite is the SQLite-backed alert store, for deployments where the
// alert history outgrows a single JSON file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hostwarden/hostwarden/internal/alert"
	_ "modernc.org/sqlite"
)

type Store struct {
	db     *sql.DB
	enrich alert.Enricher
}

// Open creates or opens the alert database at path. enrich back-fills
// score/level on legacy rows during ReadAll; pass nil to disable.
func Open(path string, enrich alert.Enricher) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single connection serializes writers, matching the file store's
	// one-appender-at-a-time guarantee.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, enrich: enrich}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS alerts (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT,
			ts_unix_ns INTEGER NOT NULL,
			pid INTEGER NOT NULL,
			name TEXT NOT NULL,
			cpu REAL NOT NULL,
			memory REAL NOT NULL,
			path TEXT,
			threat_level TEXT,
			threat_score INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(ts_unix_ns);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_level ON alerts(threat_level);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate alerts: %w", err)
		}
	}
	return nil
}

func (s *Store) Append(ctx context.Context, a alert.Alert) error {
	var path, level any
	if a.Path != "" {
		path = a.Path
	}
	if a.ThreatLevel != "" {
		level = string(a.ThreatLevel)
	}
	var score any
	if a.ThreatScore != nil {
		score = *a.ThreatScore
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, ts_unix_ns, pid, name, cpu, memory, path, threat_level, threat_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Timestamp.UTC().UnixNano(), a.PID, a.Name, a.CPUPercent, a.MemoryMB, path, level, score)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *Store) ReadAll(ctx context.Context) ([]alert.Alert, error) {
	alerts, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	if s.enrich != nil {
		for i := range alerts {
			s.enrich(&alerts[i])
		}
	}
	return alerts, nil
}

func (s *Store) ExportCSV(ctx context.Context, dest string) (string, error) {
	alerts, err := s.readAll(ctx)
	if err != nil {
		return "", err
	}
	return alert.WriteCSV(dest, alerts)
}

func (s *Store) readAll(ctx context.Context) ([]alert.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts_unix_ns, pid, name, cpu, memory, path, threat_level, threat_score
		 FROM alerts ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []alert.Alert
	for rows.Next() {
		var (
			a     alert.Alert
			tsNS  int64
			path  sql.NullString
			level sql.NullString
			score sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &tsNS, &a.PID, &a.Name, &a.CPUPercent, &a.MemoryMB, &path, &level, &score); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Timestamp = time.Unix(0, tsNS).UTC()
		if path.Valid {
			a.Path = path.String
		}
		if level.Valid {
			a.ThreatLevel = alert.Level(level.String)
		}
		if score.Valid {
			v := int(score.Int64)
			a.ThreatScore = &v
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}
