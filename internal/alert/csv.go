package alert

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CSVRow renders one alert in CSVHeader column order. Missing fields render
// as empty cells; fields outside the header are dropped.
func CSVRow(a Alert) []string {
	score := ""
	if a.ThreatScore != nil {
		score = strconv.Itoa(*a.ThreatScore)
	}
	return []string{
		a.Timestamp.UTC().Format(time.RFC3339Nano),
		strconv.FormatInt(int64(a.PID), 10),
		a.Name,
		strconv.FormatFloat(a.CPUPercent, 'f', -1, 64),
		strconv.FormatFloat(a.MemoryMB, 'f', -1, 64),
		a.Path,
		string(a.ThreatLevel),
		score,
	}
}

// WriteCSV writes alerts to dest in persisted order and returns the absolute
// output path.
func WriteCSV(dest string, alerts []Alert) (string, error) {
	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("resolve export path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("mkdir export dir: %w", err)
	}

	f, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, a := range alerts {
		if err := w.Write(CSVRow(a)); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return abs, nil
}
