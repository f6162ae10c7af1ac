package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	xlogger "FxBias/pkg/logger"
)

// RequestLogging logs one line per request at debug level, 4xx at info and 5xx at warn.
func RequestLogging(l *xlogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			fields := []xlogger.Field{
				xlogger.String("method", req.Method),
				xlogger.String("uri", req.RequestURI),
				xlogger.String("remote", c.RealIP()),
				xlogger.Int("status", status),
				xlogger.Duration("duration_ms", time.Since(start)),
			}
			switch {
			case status >= 500:
				l.Warn("http request", fields...)
			case status >= 400:
				l.Info("http request", fields...)
			default:
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}
