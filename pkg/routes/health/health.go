// Package health serves liveness, readiness and dependency health for the genealogy API.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	defaultProbeTimeout = 2 * time.Second
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker probes the graph store (or memory store) and the other registered dependencies.
type Checker struct {
	dependencies map[string]Pinger
	version      string
	startedAt    time.Time
	probeTimeout time.Duration
	ready        atomic.Bool
}

// NewChecker creates a health checker. dependencies maps a name to its pinger.
func NewChecker(version string, dependencies map[string]Pinger) *Checker {
	return &Checker{
		dependencies: dependencies,
		version:      version,
		startedAt:    time.Now(),
		probeTimeout: defaultProbeTimeout,
	}
}

// SetReady flips readiness once startup finished, and back during shutdown.
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", c.Health)
	e.GET("/health/live", c.Live)
	e.GET("/health/ready", c.Ready)
}

// HealthStatus is the body of /health and of a failing /health/ready
type HealthStatus struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Checks     map[string]*CheckResult `json:"checks"`
	ReportedAt time.Time               `json:"reported_at"`
}

type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// probe pings every dependency concurrently, each bounded by probeTimeout.
func (c *Checker) probe(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:     StatusHealthy,
		Version:    c.version,
		Uptime:     time.Since(c.startedAt).Round(time.Second).String(),
		Checks:     make(map[string]*CheckResult, len(c.dependencies)),
		ReportedAt: time.Now().UTC(),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for name, pinger := range c.dependencies {
		g.Go(func() error {
			pingCtx, cancel := context.WithTimeout(gctx, c.probeTimeout)
			defer cancel()

			start := time.Now()
			err := pinger.Ping(pingCtx)
			result := &CheckResult{Status: StatusHealthy, Latency: time.Since(start).String()}
			if err != nil {
				result = &CheckResult{Status: StatusUnhealthy, Message: err.Error()}
			}

			mu.Lock()
			status.Checks[name] = result
			if err != nil {
				status.Status = StatusUnhealthy
			}
			mu.Unlock()
			// a failing dependency must not cancel the other probes
			return nil
		})
	}
	_ = g.Wait()

	return status
}

// Health reports every dependency; 503 when any is unreachable.
func (c *Checker) Health(ctx echo.Context) error {
	status := c.probe(ctx.Request().Context())
	if status.Status != StatusHealthy {
		return ctx.JSON(http.StatusServiceUnavailable, status)
	}
	return ctx.JSON(http.StatusOK, status)
}

func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready is 503 until startup completed and while any dependency is unreachable.
func (c *Checker) Ready(ctx echo.Context) error {
	if !c.ready.Load() {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "starting"})
	}

	status := c.probe(ctx.Request().Context())
	if status.Status != StatusHealthy {
		return ctx.JSON(http.StatusServiceUnavailable, status)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
