package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Logger attaches a request scoped zerolog logger carrying request_id to the
// request context and logs one line per request.
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		requestID := c.Request().Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		ctx := logger.WithContext(c.Request().Context())
		c.SetRequest(c.Request().WithContext(ctx))

		err := next(c)
		if err != nil {
			// Let echo write the response so the logged status is the real one.
			c.Error(err)
		}

		req := c.Request()
		res := c.Response()

		event := log.Ctx(req.Context()).Info()
		if res.Status >= 500 {
			event = log.Ctx(req.Context()).Error().Err(err)
		}
		event.
			Str("method", req.Method).
			Str("endpoint", req.URL.Path).
			Int("status", res.Status).
			Int64("latency", time.Since(start).Milliseconds()).
			Str("remote_ip", c.RealIP()).
			Msg("Request processed")

		return nil
	}
}
