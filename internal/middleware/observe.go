package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/metrics"
)

// routeLabel is the registered route pattern, so ids in the URL do not
// explode label cardinality.  Unmatched requests share one label.
func routeLabel(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

// Observe logs every request with zap and records it in the HTTP
// collectors of m.  Handler errors are passed to echo's error handler first
// so the logged status is the one the client saw.
func Observe(log *zap.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	log = log.Named("http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			req := c.Request()
			status := c.Response().Status
			route := routeLabel(c)

			if m != nil {
				m.HTTPRequests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
				m.HTTPLatency.WithLabelValues(req.Method, route).Observe(elapsed.Seconds())
			}

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("latency", elapsed),
				zap.String("ip", c.RealIP()),
				zap.String("user", userID(c)),
			}
			switch {
			case status >= 500:
				log.Error("request", fields...)
			case status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		}
	}
}
