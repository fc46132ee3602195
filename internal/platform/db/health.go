package db

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// DefaultProbeTimeout bounds the database probe of the health endpoint.
const DefaultProbeTimeout = 5 * time.Second

// Pinger is anything that can prove the database answers queries.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Timestamp   string `json:"timestamp"`
	Database    string `json:"database"`
	DBLatencyMs *int64 `json:"dbLatencyMs,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Check probes the database and reports ok/connected or
// degraded/disconnected. It never fails; a slow or broken database is
// reflected in the returned status.
func Check(ctx context.Context, p Pinger, service string, timeout time.Duration) *HealthStatus {
	status := &HealthStatus{
		Status:    "degraded",
		Service:   service,
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Database:  "disconnected",
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	errc := make(chan error, 1)
	go func() { errc <- p.Ping(ctx) }()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			status.Error = fmt.Sprintf("Database health check timed out after %dms", timeout.Milliseconds())
		} else {
			status.Error = err.Error()
		}
		return status
	}

	latency := time.Since(start).Milliseconds()
	status.Status = "ok"
	status.Database = "connected"
	status.DBLatencyMs = &latency
	return status
}

// HealthHandler returns a handler for the health check endpoint.
func HealthHandler(p Pinger, service string) echo.HandlerFunc {
	return func(c echo.Context) error {
		status := Check(c.Request().Context(), p, service, DefaultProbeTimeout)
		code := http.StatusOK
		if status.Database != "connected" {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, status)
	}
}
