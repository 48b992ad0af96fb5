package middleware

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

type entry struct {
	count    int
	windowAt time.Time
}

// RateLimiter is an in-memory sliding-counter limiter. Single-process
// and non-persistent: it resets on restart and does not coordinate
// across instances.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	max     int
	window  time.Duration
}

func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		entries: make(map[string]*entry),
		max:     max,
		window:  window,
	}
}

// Allow increments the counter for key and reports whether the request
// may proceed. When denied, retryAfter is the time left in the window.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	e, ok := rl.entries[key]
	if !ok || now.After(e.windowAt) {
		rl.entries[key] = &entry{count: 1, windowAt: now.Add(rl.window)}
		return true, 0
	}
	e.count++
	if e.count > rl.max {
		return false, time.Until(e.windowAt)
	}
	return true, 0
}

// Cleanup removes expired entries. Scheduled from the cron package.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, e := range rl.entries {
		if now.After(e.windowAt) {
			delete(rl.entries, key)
		}
	}
}

// KeyByIP keys the limiter on the client address only.
func KeyByIP(c *fiber.Ctx) string {
	return c.IP()
}

// KeyByEmailIP keys on the submitted email plus the client address, so
// one address cannot burn the budget of every subscriber at once.
func KeyByEmailIP(c *fiber.Ctx) string {
	var body struct {
		Email string `json:"email"`
	}
	if len(c.Body()) > 0 {
		json.Unmarshal(c.Body(), &body)
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		email = strings.ToLower(c.Params("email"))
	}
	return email + "|" + c.IP()
}

// RateLimit rejects with 429 and a Retry-After once the key exceeds the
// limiter's budget.
func RateLimit(rl *RateLimiter, keyFunc func(*fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, retryAfter := rl.Allow(keyFunc(c))
		if !ok {
			seconds := int(retryAfter.Seconds()) + 1
			c.Set("Retry-After", strconv.Itoa(seconds))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Troppe richieste. Riprova più tardi.",
				"retry_after": seconds,
			})
		}
		return c.Next()
	}
}
