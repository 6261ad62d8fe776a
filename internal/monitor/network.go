package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	gnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// connKey identifies one connection across scan cycles.
type connKey struct {
	pid    int32
	local  string
	remote string
}

// connection is one observed outbound connection.
type connection struct {
	key         connKey
	processName string
}

// NetworkPoller lists established connections on a fixed interval and logs
// ones not seen in the previous cycle. The known set is replaced each cycle
// so closed connections age out instead of accumulating.
type NetworkPoller struct {
	interval time.Duration
	logger   *slog.Logger

	known         map[connKey]struct{}
	warnedNoPerms bool
}

// NewNetworkPoller creates a poller. Pass nil for logger to disable logging.
func NewNetworkPoller(interval time.Duration, logger *slog.Logger) *NetworkPoller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &NetworkPoller{
		interval: interval,
		logger:   logger,
		known:    make(map[connKey]struct{}),
	}
}

// Run blocks until ctx is cancelled.
func (n *NetworkPoller) Run(ctx context.Context) {
	n.logger.Info("network monitor started", "interval", n.interval)
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			n.logger.Info("network monitor stopped")
			return
		case <-ticker.C:
			n.scan(ctx)
		}
	}
}

func (n *NetworkPoller) scan(ctx context.Context) {
	conns := n.snapshot(ctx)

	current := make(map[connKey]struct{}, len(conns))
	for _, c := range conns {
		current[c.key] = struct{}{}
		if _, seen := n.known[c.key]; seen {
			continue
		}
		n.logger.Info("new connection",
			"pid", c.key.pid, "process", c.processName,
			"local", c.key.local, "remote", c.key.remote)
	}
	n.known = current
}

// snapshot lists connections with a remote address. Listing requires
// elevated privileges on some platforms; a failure or an empty result warns
// once and yields nothing rather than failing the loop.
func (n *NetworkPoller) snapshot(ctx context.Context) []connection {
	stats, err := gnet.ConnectionsWithContext(ctx, "inet")
	if err != nil || len(stats) == 0 {
		if !n.warnedNoPerms {
			n.warnedNoPerms = true
			n.logger.Warn("no connections retrieved; run with elevated privileges for full network visibility", "error", err)
		}
		return nil
	}

	out := make([]connection, 0, len(stats))
	for _, st := range stats {
		if st.Raddr.IP == "" {
			continue
		}
		out = append(out, connection{
			key: connKey{
				pid:    st.Pid,
				local:  formatAddr(st.Laddr),
				remote: formatAddr(st.Raddr),
			},
			processName: processName(ctx, st.Pid),
		})
	}
	return out
}

func formatAddr(a gnet.Addr) string {
	if a.IP == "" {
		return "n/a"
	}
	return fmt.Sprintf("%s:%d", a.IP, a.Port)
}

func processName(ctx context.Context, pid int32) string {
	if pid == 0 {
		return "unknown"
	}
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "unknown"
	}
	name, err := p.NameWithContext(ctx)
	if err != nil || name == "" {
		return "unknown"
	}
	return name
}
