package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	RequestIDHeader   = "X-Request-ID"
	requestIDLocalKey = "request_id"
)

// RequestID propagates X-Request-ID, generating one when missing.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(requestIDLocalKey, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}

func requestIDFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(requestIDLocalKey).(string); ok {
		return s
	}
	return ""
}

func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		log.Info().
			Str("request_id", requestIDFromCtx(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("http request")
		return err
	}
}
