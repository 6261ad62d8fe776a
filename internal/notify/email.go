// Package notify decides whether a persisted alert warrants an email and
// builds the message payload. Delivery sits behind the Sender interface so
// the transport stays swappable (and testable without an SMTP server).
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hostwarden/hostwarden/internal/alert"
	"github.com/hostwarden/hostwarden/internal/config"
)

// Payload is a rendered notification message.
type Payload struct {
	Subject string
	Body    string
}

// Sender delivers a payload.
type Sender interface {
	Send(ctx context.Context, p Payload) error
}

// Notifier gates and dispatches alert notifications.
type Notifier struct {
	enabled bool
	sender  Sender
	logger  *slog.Logger
}

// New creates a notifier. A nil sender with enabled=true falls back to
// log-only delivery.
func New(enabled bool, sender Sender, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if sender == nil {
		sender = &LogSender{logger: logger}
	}
	return &Notifier{enabled: enabled, sender: sender, logger: logger}
}

// ShouldNotify reports whether a notification is warranted for the alert.
// Every persisted alert qualifies when notifications are enabled.
func (n *Notifier) ShouldNotify(alert.Alert) bool {
	return n.enabled
}

// Notify builds and sends the payload for one alert. Delivery failures are
// logged, never propagated; a broken mail server must not stall monitoring.
func (n *Notifier) Notify(ctx context.Context, a alert.Alert) {
	if !n.ShouldNotify(a) {
		return
	}
	if err := n.sender.Send(ctx, BuildPayload(a)); err != nil {
		n.logger.Warn("alert notification failed", "pid", a.PID, "name", a.Name, "error", err)
	}
}

// BuildPayload renders the notification for one alert.
func BuildPayload(a alert.Alert) Payload {
	score := "unscored"
	if a.ThreatScore != nil {
		score = fmt.Sprintf("%d", *a.ThreatScore)
	}
	path := a.Path
	if path == "" {
		path = "(unknown)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Suspicious process detected at %s\n\n", a.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Process: %s (PID %d)\n", a.Name, a.PID)
	fmt.Fprintf(&b, "Path: %s\n", path)
	fmt.Fprintf(&b, "CPU: %.2f%%  Memory: %.2f MB\n", a.CPUPercent, a.MemoryMB)
	fmt.Fprintf(&b, "Threat level: %s (score %s)\n", a.ThreatLevel, score)

	return Payload{
		Subject: fmt.Sprintf("[hostwarden] %s threat: %s (PID %d)", a.ThreatLevel, a.Name, a.PID),
		Body:    b.String(),
	}
}

// SMTPSender delivers payloads over SMTP with STARTTLS-capable plain auth.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
}

// NewSMTPSender builds a sender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth: auth,
		from: cfg.From,
		to:   []string{cfg.To},
	}
}

func (s *SMTPSender) Send(_ context.Context, p Payload) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.from, strings.Join(s.to, ", "), p.Subject, p.Body)
	if err := smtp.SendMail(s.addr, s.auth, s.from, s.to, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender writes payloads to the log instead of delivering them. Used when
// notifications are enabled without SMTP settings.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, p Payload) error {
	s.logger.Info("alert notification", "subject", p.Subject)
	return nil
}
