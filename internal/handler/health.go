package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/demo-backend/internal/middleware"
	"github.com/deppfellow/demo-backend/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// HealthHandler serves the two health endpoints.
//
//   - GET /health is the simple probe. It always answers 200 and reports a
//     database failure in the body.
//   - GET /status runs every configured dependency check and answers 503
//     when the database is unreachable. Redis failures are reported but do
//     not change the status code.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// Health opens a connection, runs a trivial query and hands it back.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.server.Config.Observability.HealthChecks.Timeout)
	defer cancel()

	if err := h.server.DB.Ping(ctx); err != nil {
		middleware.GetLogger(c).Warn().Err(err).Msg("database health probe failed")

		return c.JSON(http.StatusOK, map[string]string{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}

type checkResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// CheckHealth reports every enabled dependency check with its latency.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := map[string]checkResult{}
	isHealthy := true

	if h.server.Config.Observability.HasCheck("database") {
		result := h.runCheck(c.Request().Context(), &logger, "database", h.server.DB.Ping)
		checks["database"] = result
		isHealthy = result.Status == "healthy"
	}

	if h.server.Redis != nil && h.server.Config.Observability.HasCheck("redis") {
		checks["redis"] = h.runCheck(c.Request().Context(), &logger, "redis", func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		})
	}

	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	if !isHealthy {
		response["status"] = "unhealthy"
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("health check failed")
		h.recordEvent(map[string]any{
			"check_type":        "overall",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().Dur("total_duration", time.Since(start)).Msg("health check passed")
	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) runCheck(ctx context.Context, logger *zerolog.Logger, name string, check func(context.Context) error) checkResult {
	ctx, cancel := context.WithTimeout(ctx, h.server.Config.Observability.HealthChecks.Timeout)
	defer cancel()

	checkStart := time.Now()
	err := check(ctx)
	elapsed := time.Since(checkStart)

	if err != nil {
		logger.Error().Err(err).Str("check", name).Dur("response_time", elapsed).Msg("health check failed")
		h.recordEvent(map[string]any{
			"check_type":       name,
			"error_type":       name + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})

		return checkResult{Status: "unhealthy", ResponseTime: elapsed.String(), Error: err.Error()}
	}

	logger.Debug().Str("check", name).Dur("response_time", elapsed).Msg("health check passed")
	return checkResult{Status: "healthy", ResponseTime: elapsed.String()}
}

// recordEvent sends a HealthCheckError custom event when New Relic is on.
func (h *HealthHandler) recordEvent(attrs map[string]any) {
	app := h.server.LoggerService.GetApplication()
	if app == nil {
		return
	}

	attrs["operation"] = "health_check"
	app.RecordCustomEvent("HealthCheckError", attrs)
}
