package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"youtube-analytics/internal/transport/httpserver/dto"
)

// Recover turns a panic in a handler into a 500 response. The panic is logged at
// error level, which also reports it to Sentry when enabled.
func Recover(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.Error("panic recovered",
				zap.Error(fmt.Errorf("panic: %v", r)),
				zap.Stack("stack"),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("request_id", requestID(c)),
				zap.String("session_id", SessionID(c)),
			)

			err = c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: "internal server error",
				Code:  "PANIC",
			})
		}()

		return c.Next()
	}
}
