package controller

import (
	"log"

	"casaviva_backend/internal/model"
	"casaviva_backend/pkg/database"
	"casaviva_backend/pkg/email"

	"github.com/gofiber/fiber/v2"
)

type notifyListingInput struct {
	PropertyID uint `json:"property_id"`
}

type notifyPostInput struct {
	PostID uint `json:"post_id"`
}

// NotifyListing fans a new-listing email out to every confirmed
// subscriber who opted into listing updates. Per-recipient failures are
// counted, not fatal.
func NotifyListing(c *fiber.Ctx) error {
	input := new(notifyListingInput)
	if err := c.BodyParser(input); err != nil || input.PropertyID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dati non validi",
		})
	}

	var property model.Property
	if err := database.GetDB().First(&property, input.PropertyID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Immobile non trovato",
		})
	}

	if email.GlobalEmailService == nil {
		return c.JSON(fiber.Map{"success": true, "sent": 0, "failed": 0})
	}

	var subscribers []model.Subscription
	database.GetDB().
		Where("confirmed = ? AND new_listings = ?", true, true).
		Find(&subscribers)

	data := email.NewListingData{
		Title:    property.Title,
		Zone:     property.Zone,
		Price:    property.Price,
		Contract: string(property.Contract),
		URL:      cfg.Server.PublicURL + "/immobili/" + property.Slug,
	}

	sent, failedCount := 0, 0
	for _, sub := range subscribers {
		if err := email.GlobalEmailService.SendNewListingEmail(sub.Email, sub.Name, data); err != nil {
			log.Printf("Notify listing %d to %s: %v", property.ID, sub.Email, err)
			failedCount++
			continue
		}
		sent++
	}

	return c.JSON(fiber.Map{"success": true, "sent": sent, "failed": failedCount})
}

// NotifyPost fans a new-article email out to confirmed blog subscribers.
func NotifyPost(c *fiber.Ctx) error {
	input := new(notifyPostInput)
	if err := c.BodyParser(input); err != nil || input.PostID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dati non validi",
		})
	}

	var post model.Post
	if err := database.GetDB().First(&post, input.PostID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Articolo non trovato",
		})
	}

	if email.GlobalEmailService == nil {
		return c.JSON(fiber.Map{"success": true, "sent": 0, "failed": 0})
	}

	var subscribers []model.Subscription
	database.GetDB().
		Where("confirmed = ? AND blog_updates = ?", true, true).
		Find(&subscribers)

	data := email.NewPostData{
		Title:    post.Title,
		Subtitle: post.Subtitle,
		URL:      cfg.Server.PublicURL + "/blog/" + post.Slug,
	}

	sent, failedCount := 0, 0
	for _, sub := range subscribers {
		if err := email.GlobalEmailService.SendNewPostEmail(sub.Email, sub.Name, data); err != nil {
			log.Printf("Notify post %d to %s: %v", post.ID, sub.Email, err)
			failedCount++
			continue
		}
		sent++
	}

	return c.JSON(fiber.Map{"success": true, "sent": sent, "failed": failedCount})
}
