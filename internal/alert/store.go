package alert

import "context"

// Store persists alerts. Implementations serialize access so that two
// concurrent Appends within this process never interleave on the backing
// medium; cross-process coordination is explicitly not provided.
type Store interface {
	// Append persists one alert. The alert is never dropped because prior
	// records are unreadable.
	Append(ctx context.Context, a Alert) error

	// ReadAll returns every persisted alert in insertion order, enriching
	// records that predate scoring. Enrichment is read-side only; the
	// backing medium is not rewritten.
	ReadAll(ctx context.Context) ([]Alert, error)

	// ExportCSV snapshots the raw (unenriched) collection to dest and
	// returns the absolute output path.
	ExportCSV(ctx context.Context, dest string) (string, error)

	Close() error
}

// CSVHeader is the fixed column order of an alert export.
var CSVHeader = []string{"timestamp", "pid", "name", "cpu", "memory", "path", "threat_level", "threat_score"}
