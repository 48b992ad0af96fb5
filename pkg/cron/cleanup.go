// pkg/cron/cleanup.go

package cron

import (
	"log"

	"casaviva_backend/internal/middleware"

	"github.com/robfig/cron/v3"
)

// InitLimiterSweep schedules the periodic purge of expired rate-limit
// entries. Returns the scheduler so the caller owns its lifecycle.
func InitLimiterSweep(limiter *middleware.RateLimiter) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("*/5 * * * *", func() {
		limiter.Cleanup()
	})
	if err != nil {
		log.Printf("Could not initialize limiter sweep: %v", err)
		return c
	}

	c.Start()
	log.Printf("Rate-limit sweep scheduled")
	return c
}
