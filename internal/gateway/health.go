package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tair/tenant-commerce/pkg/logger"
)

// Probe checks one dependency; nil means healthy.
type Probe func(ctx context.Context) error

// ComponentHealth is the outcome of one probe.
type ComponentHealth struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Report is the /health payload.
type Report struct {
	Service    string                     `json:"service"`
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Uptime     float64                    `json:"uptime_seconds"`
}

// HealthChecker runs registered probes concurrently.
type HealthChecker struct {
	service string
	timeout time.Duration
	started time.Time
	ready   atomic.Bool

	mu     sync.RWMutex
	probes map[string]Probe
}

func NewHealthChecker(service string) *HealthChecker {
	return &HealthChecker{
		service: service,
		timeout: 3 * time.Second,
		started: time.Now(),
		probes:  make(map[string]Probe),
	}
}

func (h *HealthChecker) Register(name string, p Probe) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = p
}

// MarkReady flips /ready to 200 once wiring has finished.
func (h *HealthChecker) MarkReady() { h.ready.Store(true) }

func (h *HealthChecker) Ready() bool { return h.ready.Load() }

// Check runs all probes. The service is degraded when some probes fail and
// unhealthy when all do.
func (h *HealthChecker) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	h.mu.RLock()
	probes := make(map[string]Probe, len(h.probes))
	for k, v := range h.probes {
		probes[k] = v
	}
	h.mu.RUnlock()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out = make(map[string]ComponentHealth, len(probes))
	)
	for name, probe := range probes {
		wg.Add(1)
		go func(name string, probe Probe) {
			defer wg.Done()
			start := time.Now()
			res := ComponentHealth{Status: "healthy"}
			if err := probe(ctx); err != nil {
				res.Status = "unhealthy"
				res.Error = err.Error()
				logger.Warn(ctx).Str("component", name).Err(err).Msg("Health probe failed")
			}
			res.LatencyMS = time.Since(start).Milliseconds()
			mu.Lock()
			out[name] = res
			mu.Unlock()
		}(name, probe)
	}
	wg.Wait()

	return Report{
		Service:    h.service,
		Status:     overallStatus(out),
		Components: out,
		Uptime:     time.Since(h.started).Seconds(),
	}
}

func overallStatus(components map[string]ComponentHealth) string {
	healthy := 0
	for _, c := range components {
		if c.Status == "healthy" {
			healthy++
		}
	}
	switch {
	case healthy == len(components):
		return "healthy"
	case healthy > 0:
		return "degraded"
	default:
		return "unhealthy"
	}
}
