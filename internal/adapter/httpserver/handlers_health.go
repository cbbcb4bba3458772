package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/energypatrikhu/obs-ui/internal/platform/version"
	"github.com/labstack/echo/v4"
)

const (
	startupProbeTimeout   = 2 * time.Second
	readinessProbeTimeout = 5 * time.Second
)

// HealthCheck is a dependency probed by the startup and readiness endpoints.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/startup", s.probe(startupProbeTimeout))
	s.echo.GET("/health/ready", s.probe(readinessProbeTimeout))
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/version", s.handleVersion)
}

// probe runs every check in parallel and answers 503 if any of them failed.
func (s *Server) probe(timeout time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()

		report := s.checkDependencies(ctx)
		status := http.StatusOK
		if report.Status != "ready" {
			status = http.StatusServiceUnavailable
		}
		if err := c.JSON(status, report); err != nil {
			return fmt.Errorf("failed to write health report: %w", err)
		}
		return nil
	}
}

func (s *Server) checkDependencies(ctx context.Context) healthReport {
	report := healthReport{Status: "ready", Checks: make(map[string]string, len(s.healthChecks))}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, hc := range s.healthChecks {
		wg.Go(func() {
			result := "ok"
			if err := hc.Check(ctx); err != nil {
				result = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checks[hc.Name] = result
			if result != "ok" {
				report.Status = "unhealthy"
			}
		})
	}
	wg.Wait()

	return report
}

func (s *Server) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status":         "alive",
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
