package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostwarden/hostwarden/internal/alert"
	"github.com/hostwarden/hostwarden/internal/config"
)

type captureSender struct {
	sent []Payload
	err  error
}

func (c *captureSender) Send(_ context.Context, p Payload) error {
	c.sent = append(c.sent, p)
	return c.err
}

func intp(v int) *int { return &v }

func sampleAlert() alert.Alert {
	return alert.Alert{
		Timestamp:   time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC),
		PID:         1234,
		Name:        "evil_proc",
		CPUPercent:  95.5,
		MemoryMB:    901.2,
		Path:        "/tmp/evil",
		ThreatLevel: alert.LevelHigh,
		ThreatScore: intp(100),
	}
}

func TestBuildPayload(t *testing.T) {
	p := BuildPayload(sampleAlert())

	assert.Equal(t, "[hostwarden] high threat: evil_proc (PID 1234)", p.Subject)
	assert.Contains(t, p.Body, "evil_proc (PID 1234)")
	assert.Contains(t, p.Body, "/tmp/evil")
	assert.Contains(t, p.Body, "95.50%")
	assert.Contains(t, p.Body, "901.20 MB")
	assert.Contains(t, p.Body, "high (score 100)")
}

func TestBuildPayloadMissingFields(t *testing.T) {
	a := sampleAlert()
	a.Path = ""
	a.ThreatScore = nil

	p := BuildPayload(a)
	assert.Contains(t, p.Body, "(unknown)")
	assert.Contains(t, p.Body, "score unscored")
}

func TestNotifierDisabledSendsNothing(t *testing.T) {
	sender := &captureSender{}
	n := New(false, sender, nil)

	assert.False(t, n.ShouldNotify(sampleAlert()))
	n.Notify(context.Background(), sampleAlert())
	assert.Empty(t, sender.sent)
}

func TestNotifierEnabledSends(t *testing.T) {
	sender := &captureSender{}
	n := New(true, sender, nil)

	n.Notify(context.Background(), sampleAlert())
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Subject, "evil_proc")
}

func TestSendFailureIsSwallowed(t *testing.T) {
	sender := &captureSender{err: fmt.Errorf("smtp down")}
	n := New(true, sender, nil)

	// Must not panic or propagate.
	n.Notify(context.Background(), sampleAlert())
	assert.Len(t, sender.sent, 1)
}

func TestNilSenderFallsBackToLog(t *testing.T) {
	n := New(true, nil, nil)
	n.Notify(context.Background(), sampleAlert())
}

func TestNewSMTPSenderAddr(t *testing.T) {
	s := NewSMTPSender(config.EmailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, From: "a@x", To: "b@y"})
	assert.Equal(t, "smtp.example.com:587", s.addr)
	assert.Equal(t, []string{"b@y"}, s.to)
	assert.Nil(t, s.auth, "no auth without a username")
}
