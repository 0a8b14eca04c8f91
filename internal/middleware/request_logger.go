package middleware

import (
	"time"

	"inventory/internal/logger"
	"inventory/internal/metrics"

	"github.com/labstack/echo/v4"
)

// RequestLogger は request_id を載せたロガーをcontextに入れて、終わったら1行出す。
// echoのRequestIDより後ろに置く。
func RequestLogger(log *logger.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := log.WithRequestID(req.Context(), requestID)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				// echoのエラーハンドラでステータスを確定させる
				c.Error(err)
			}

			status := c.Response().Status
			latency := time.Since(start)
			m.ObserveHTTP(req.Method, c.Path(), status, latency)

			fields := map[string]any{
				"method":     req.Method,
				"path":       c.Path(),
				"status":     status,
				"latency_ms": latency.Milliseconds(),
			}
			if id, ok := UserIDFrom(c); ok {
				fields["user_id"] = id
			}
			ctx = log.WithFields(c.Request().Context(), fields)

			switch {
			case status >= 500:
				log.Error(ctx, "request failed", err)
			case status >= 400:
				log.Warn(ctx, "request rejected")
			default:
				log.Info(ctx, "request completed")
			}
			return nil
		}
	}
}
