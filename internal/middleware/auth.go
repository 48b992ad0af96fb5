package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const SessionAdminKey = "is_admin"

// AdminRequired gates the back-office routes on the session flag set at
// login. There is no per-user privilege model: one shared token, one flag.
func AdminRequired(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Accesso non autorizzato",
			})
		}
		if admin, _ := sess.Get(SessionAdminKey).(bool); !admin {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Accesso non autorizzato",
			})
		}
		return c.Next()
	}
}

func cronTokenMatches(c *fiber.Ctx, token string) bool {
	if token == "" {
		return false
	}
	supplied := c.Get("X-Cron-Token")
	if supplied == "" {
		supplied = c.Query("cron_token")
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) == 1
}

// CronToken protects endpoints meant for scheduled callers, checked via
// header or query parameter against the environment secret.
func CronToken(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cronTokenMatches(c, token) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Accesso non autorizzato",
			})
		}
		return c.Next()
	}
}

// AdminOrCron accepts either a live admin session or the cron token.
// The notify endpoints are called both from the back-office UI and from
// the detached self-call fired on listing publication.
func AdminOrCron(store *session.Store, token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cronTokenMatches(c, token) {
			return c.Next()
		}
		if sess, err := store.Get(c); err == nil {
			if admin, _ := sess.Get(SessionAdminKey).(bool); admin {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Accesso non autorizzato",
		})
	}
}
