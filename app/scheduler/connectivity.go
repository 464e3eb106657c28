package scheduler

import (
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"time"
)

// ProbeFunc reports whether the network is reachable.
type ProbeFunc func(ctx context.Context) bool

// PingProbe returns a probe that sends a single ICMP echo to host. The probe
// is deliberately cheap and is only consulted after a fetch failure, never
// before every fetch.
func PingProbe(host string, timeout time.Duration) ProbeFunc {
	secs := int(timeout / time.Second)
	if secs < 1 {
		secs = 1
	}

	return func(ctx context.Context) bool {
		cmd := exec.CommandContext(ctx, "ping", "-c", "1", "-W", strconv.Itoa(secs), host)
		if err := cmd.Run(); err != nil {
			slog.Debug("Connectivity probe failed", "host", host, "error", err)
			return false
		}
		return true
	}
}

// Monitor answers "is this failure the feed's fault or the network's?".
type Monitor struct {
	probe ProbeFunc
}

func NewMonitor(probe ProbeFunc) *Monitor {
	return &Monitor{probe: probe}
}

func (m *Monitor) Online(ctx context.Context) bool {
	return m.probe(ctx)
}
