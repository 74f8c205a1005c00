package requestmetrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Recorder receives one observation per served request.
type Recorder interface {
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
}

// New records method, route pattern, status and latency of every request.
// The route pattern is used instead of the raw path to bound label values.
func New(rec Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		path := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			path = r.Path
		}
		rec.RecordHTTPRequest(c.Method(), path, status, time.Since(start))
		return err
	}
}
