package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nrtkbb/nebula/metrics"
)

// NewServer returns an echo instance with middleware and all routes registered.
func NewServer(h *Handler, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger.With("comp", "http"))

	// Middleware
	e.Use(requestObserver(logger.With("comp", "http")))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	RegisterRoutes(e, h)
	return e
}

func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/health", h.Health)
	e.GET("/", h.Root)

	e.POST("/folders/inspect", h.InspectFolder)
	e.POST("/folders/snapshot", h.SnapshotFolder)
	e.GET("/folders/snapshots", h.ListSnapshots)

	e.POST("/text/keywords", h.ExtractKeywords)

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// requestObserver logs every request and records its metrics once the error
// handler has settled the final status.
func requestObserver(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		HandleError: true,
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordHTTPRequest(v.Method, route, v.Status, v.Latency)

			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			switch {
			case v.Status >= http.StatusInternalServerError:
				logger.Error("request", append(attrs, "err", v.Error)...)
			case v.Error != nil:
				logger.Info("request", append(attrs, "err", v.Error)...)
			default:
				logger.Info("request", attrs...)
			}
			return nil
		},
	})
}

// errorHandler renders every error as {"detail": message}.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		detail := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			detail = fmt.Sprint(he.Message)
		} else {
			logger.Error("unhandled error", "err", err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, ErrorResponse{Detail: detail})
		}
		if writeErr != nil {
			logger.Error("failed to write error response", "err", writeErr)
		}
	}
}
