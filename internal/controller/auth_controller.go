package controller

import (
	"crypto/subtle"

	"casaviva_backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type LoginInput struct {
	Token string `json:"token"`
}

// Login compares the submitted token against the configured shared
// secret and, on match, flags the server-side session as admin.
func Login(c *fiber.Ctx) error {
	input := new(LoginInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dati non validi",
		})
	}

	if cfg.Auth.AdminToken == "" ||
		subtle.ConstantTimeCompare([]byte(input.Token), []byte(cfg.Auth.AdminToken)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Credenziali non valide",
		})
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile creare la sessione",
		})
	}
	sess.Set(middleware.SessionAdminKey, true)
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile creare la sessione",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

func Logout(c *fiber.Ctx) error {
	sess, err := sessionStore.Get(c)
	if err == nil {
		sess.Destroy()
	}
	return c.JSON(fiber.Map{"success": true})
}

func AuthStatus(c *fiber.Ctx) error {
	authenticated := false
	if sess, err := sessionStore.Get(c); err == nil {
		authenticated, _ = sess.Get(middleware.SessionAdminKey).(bool)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"authenticated": authenticated},
	})
}
