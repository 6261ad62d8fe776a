// Package api serves the alerts dashboard: an HTML table plus JSON and CSV
// views over the alert store. It is a read-only consumer of the store.
package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hostwarden/hostwarden/internal/alert"
)

// Reader is the read-only slice of alert.Store the dashboard needs.
type Reader interface {
	ReadAll(ctx context.Context) ([]alert.Alert, error)
}

type App struct {
	store  Reader
	logger *slog.Logger
	page   *template.Template
}

// NewApp creates the dashboard over the given store. Pass nil for logger to
// disable logging.
func NewApp(store Reader, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &App{
		store:  store,
		logger: logger,
		page:   template.Must(template.New("index").Parse(indexHTML)),
	}
}

func (a *App) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { writeText(w, http.StatusOK, "ok\n") })
	r.Get("/", a.index)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/alerts", a.listAlerts)
		r.Get("/alerts/export", a.exportAlerts)
		r.Get("/stats", a.stats)
	})

	return r
}

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	alerts, err := a.store.ReadAll(r.Context())
	if err != nil {
		http.Error(w, "alerts unavailable", http.StatusInternalServerError)
		return
	}
	st := alert.Summarize(alerts)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.page.Execute(w, map[string]any{"Alerts": alerts, "Stats": st}); err != nil {
		a.logger.Warn("dashboard render failed", "error", err)
	}
}

func (a *App) listAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := a.store.ReadAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "alerts unavailable"})
		return
	}
	if alerts == nil {
		alerts = []alert.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (a *App) stats(w http.ResponseWriter, r *http.Request) {
	alerts, err := a.store.ReadAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "alerts unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, alert.Summarize(alerts))
}

func (a *App) exportAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := a.store.ReadAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "alerts unavailable"})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="alerts.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write(alert.CSVHeader)
	for _, a := range alerts {
		_ = cw.Write(alert.CSVRow(a))
	}
	cw.Flush()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, s)
}
