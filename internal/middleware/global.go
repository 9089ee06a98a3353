package middleware

import (
	"net/http"

	"github.com/deppfellow/demo-backend/internal/errs"
	"github.com/deppfellow/demo-backend/internal/server"
	"github.com/deppfellow/demo-backend/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// GlobalMiddlewares groups the middleware applied to every route and the
// global error handler.
type GlobalMiddlewares struct {
	server *server.Server
}

func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS allows the configured browser origins ("*" by default).
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  global.server.Config.Server.CORSAllowedOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderContentType, echo.HeaderAccept, RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
	})
}

// Recover turns handler panics into 500 responses.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.Recover()
}

func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// StatusFromError predicts the status GlobalErrorHandler will answer err
// with. Middleware that runs before the response is written uses it.
func StatusFromError(err error) int {
	return toHTTPError(err).Status
}

// toHTTPError normalizes any handler error into the response body.
//
//   - *errs.HTTPError is used as is
//   - *echo.HTTPError keeps its status; a route miss reads "Route not found"
//   - anything else is treated as a driver error (sqlerr.HandleError)
func toHTTPError(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if echoErr.Code == http.StatusNotFound {
			return errs.NewNotFoundError("Route not found", false, nil)
		}

		message, ok := echoErr.Message.(string)
		if !ok {
			message = http.StatusText(echoErr.Code)
		}
		return &errs.HTTPError{
			Code:    errs.MakeUpperCaseWithUnderscores(http.StatusText(echoErr.Code)),
			Message: message,
			Status:  echoErr.Code,
		}
	}

	if errors.As(sqlerr.HandleError(err), &httpErr) {
		return httpErr
	}
	return errs.NewInternalServerError()
}

// levelFor picks Error for 5xx, Warn for 4xx and Info otherwise.
func levelFor(logger *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return logger.Error()
	case status >= http.StatusBadRequest:
		return logger.Warn()
	default:
		return logger.Info()
	}
}

// RequestLogger writes one "API" line per request at the level of its
// final status.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			// With a returned error the response is not written yet, so
			// v.Status would still read 200.
			// https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
			status := v.Status
			if v.Error != nil {
				status = StatusFromError(v.Error)
			}

			levelFor(GetLogger(c), status).
				Err(v.Error).
				Dur("latency", v.Latency).
				Int("status", status).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

// GlobalErrorHandler is the single place errors become responses. The
// original error is logged; the client gets the normalized body.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	body := toHTTPError(err)

	event := levelFor(GetLogger(c), body.Status)
	if body.Status >= http.StatusInternalServerError {
		event = event.Stack().Str("db_code", string(sqlerr.ErrCode(err)))
	}
	event.
		Err(err).
		Int("status", body.Status).
		Str("error_code", body.Code).
		Msg(body.Message)

	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(body.Status)
		return
	}

	_ = c.JSON(body.Status, body)
}
