package controller

import (
	"log"
	"net/mail"
	"strings"
	"time"

	"casaviva_backend/internal/model"
	"casaviva_backend/pkg/database"
	"casaviva_backend/pkg/email"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscribeInput struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	BlogUpdates *bool  `json:"blogUpdates"`
	NewListings *bool  `json:"newListings"`
	Source      string `json:"source"`
}

func newConfirmToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func subscriptionAttributes(sub *model.Subscription) map[string]interface{} {
	return map[string]interface{}{
		"BLOG_UPDATES": sub.BlogUpdates,
		"NEW_LISTINGS": sub.NewListings,
	}
}

// Subscribe creates or updates a newsletter subscription. The local row
// is written before any provider call and stays authoritative: a
// degraded provider sync never surfaces as a user-facing error.
func Subscribe(c *fiber.Ctx) error {
	input := new(SubscribeInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dati non validi",
		})
	}

	input.Email = normalizeEmail(input.Email)
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Dati non validi",
			"errors": fiber.Map{"email": "Indirizzo email non valido"},
		})
	}

	var sub model.Subscription
	err := database.GetDB().Where("email = ?", input.Email).First(&sub).Error
	exists := err == nil
	if err != nil && err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile completare l'iscrizione",
		})
	}

	if exists && sub.Confirmed {
		// Already opted in: merge the submitted values, never re-send
		// the confirmation email.
		applySubscribeInput(&sub, input)
		if err := database.GetDB().Save(&sub).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Impossibile aggiornare le preferenze",
			})
		}
		mirrorPreferences(&sub)
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Preferenze aggiornate.",
		})
	}

	if !exists {
		sub = model.Subscription{Email: input.Email}
	}
	applySubscribeInput(&sub, input)
	sub.ConfirmToken = newConfirmToken()
	sub.ConsentAt = time.Now()
	sub.ConsentIP = c.IP()
	sub.Confirmed = false

	if err := database.GetDB().Save(&sub).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile completare l'iscrizione",
		})
	}

	if email.GlobalEmailService != nil {
		redirect := cfg.Server.PublicURL + "/api/subscribe/confirm/" + sub.ConfirmToken
		res := email.GlobalEmailService.CreateContactDOI(sub.Email, sub.Name, subscriptionAttributes(&sub), redirect)
		switch res.Status {
		case email.SyncDegraded:
			log.Printf("Subscribe %s: degraded provider sync: %s", sub.Email, res.Warning)
		case email.SyncFailed:
			log.Printf("Subscribe %s: provider sync failed: %s", sub.Email, res.Warning)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Iscrizione ricevuta. Controlla la tua casella per confermare.",
	})
}

func applySubscribeInput(sub *model.Subscription, input *SubscribeInput) {
	if input.Name != "" {
		sub.Name = input.Name
	}
	if input.Source != "" {
		sub.Source = input.Source
	}
	if input.BlogUpdates != nil {
		sub.BlogUpdates = *input.BlogUpdates
	}
	if input.NewListings != nil {
		sub.NewListings = *input.NewListings
	}
}

func mirrorPreferences(sub *model.Subscription) {
	if email.GlobalEmailService == nil {
		return
	}
	res := email.GlobalEmailService.UpdateContact(sub.Email, subscriptionAttributes(sub))
	if res.Status != email.SyncOK {
		log.Printf("Mirror %s: %s", sub.Email, res.Warning)
	}
}

// GetSubscription returns the current preferences for an email.
func GetSubscription(c *fiber.Ctx) error {
	addr := normalizeEmail(c.Params("email"))

	var sub model.Subscription
	if err := database.GetDB().Where("email = ?", addr).First(&sub).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Iscrizione non trovata",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"email":       sub.Email,
			"name":        sub.Name,
			"blogUpdates": sub.BlogUpdates,
			"newListings": sub.NewListings,
			"confirmed":   sub.Confirmed,
		},
	})
}

// UpdatePreferences overwrites only the supplied flags on an existing
// subscription. The confirmed flag and any pending token are untouched.
func UpdatePreferences(c *fiber.Ctx) error {
	input := new(SubscribeInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dati non validi",
		})
	}

	input.Email = normalizeEmail(input.Email)
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Dati non validi",
			"errors": fiber.Map{"email": "Indirizzo email non valido"},
		})
	}

	var sub model.Subscription
	if err := database.GetDB().Where("email = ?", input.Email).First(&sub).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Iscrizione non trovata",
		})
	}

	if input.BlogUpdates != nil {
		sub.BlogUpdates = *input.BlogUpdates
	}
	if input.NewListings != nil {
		sub.NewListings = *input.NewListings
	}
	if input.Name != "" {
		sub.Name = input.Name
	}

	if err := database.GetDB().Save(&sub).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile aggiornare le preferenze",
		})
	}

	mirrorPreferences(&sub)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Preferenze aggiornate.",
	})
}

// ConfirmSubscription handles the link in the confirmation email.
// Clicking a consumed link a second time lands on the already-confirmed
// page, not an error.
func ConfirmSubscription(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Link di conferma non valido",
		})
	}

	var sub model.Subscription
	if err := database.GetDB().Where("confirm_token = ?", token).First(&sub).Error; err != nil {
		if err := database.GetDB().Where("consumed_token = ?", token).First(&sub).Error; err == nil {
			return c.Redirect(cfg.Server.PublicURL + "/newsletter/gia-confermata")
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Link di conferma non valido",
		})
	}

	if sub.Confirmed {
		return c.Redirect(cfg.Server.PublicURL + "/newsletter/gia-confermata")
	}

	sub.Confirm()
	if err := database.GetDB().Save(&sub).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile confermare l'iscrizione",
		})
	}

	return c.Redirect(cfg.Server.PublicURL + "/newsletter/confermata")
}

type brevoWebhookEvent struct {
	Event string `json:"event"`
	Email string `json:"email"`
}

// EmailProviderWebhook ingests provider events. It always answers 200:
// a non-2xx here only buys a retry storm from the provider, so failures
// are logged and swallowed.
func EmailProviderWebhook(c *fiber.Ctx) error {
	var event brevoWebhookEvent
	if err := c.BodyParser(&event); err != nil {
		log.Printf("Webhook: unparseable payload: %v", err)
		return c.JSON(fiber.Map{"received": true})
	}

	if event.Event != "contact_activated" {
		return c.JSON(fiber.Map{"received": true})
	}

	addr := normalizeEmail(event.Email)
	var sub model.Subscription
	if err := database.GetDB().Where("email = ?", addr).First(&sub).Error; err != nil {
		log.Printf("Webhook: no subscription for %s", addr)
		return c.JSON(fiber.Map{"received": true})
	}

	if !sub.Confirmed {
		sub.Confirm()
		if err := database.GetDB().Save(&sub).Error; err != nil {
			log.Printf("Webhook: could not confirm %s: %v", addr, err)
		}
	}

	return c.JSON(fiber.Map{"received": true})
}
