package controller

import (
	"log"
	"net/mail"

	"casaviva_backend/internal/model"
	"casaviva_backend/pkg/database"
	"casaviva_backend/pkg/email"

	"github.com/gofiber/fiber/v2"
)

type LeadInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Message    string `json:"message"`
	Source     string `json:"source"`
	PropertyID *uint  `json:"property_id"`
	Newsletter bool   `json:"newsletter"`
}

// CreateLead records a contact-form submission and mails the agency
// inbox best-effort.
func CreateLead(c *fiber.Ctx) error {
	input := new(LeadInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dati non validi",
		})
	}

	errs := fiber.Map{}
	if input.Name == "" {
		errs["name"] = "Il nome è obbligatorio"
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		errs["email"] = "Indirizzo email non valido"
	}
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Dati non validi",
			"errors": errs,
		})
	}

	var propertyTitle string
	if input.PropertyID != nil {
		var property model.Property
		if err := database.GetDB().First(&property, *input.PropertyID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Immobile non trovato",
			})
		}
		propertyTitle = property.Title
	}

	lead := model.Lead{
		Name:       input.Name,
		Email:      normalizeEmail(input.Email),
		Message:    input.Message,
		Source:     input.Source,
		PropertyID: input.PropertyID,
		Newsletter: input.Newsletter,
		IP:         c.IP(),
	}

	if err := database.GetDB().Create(&lead).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile inviare la richiesta",
		})
	}

	if email.GlobalEmailService != nil {
		err := email.GlobalEmailService.SendLeadNotificationEmail(cfg.Email.AgencyInbox,
			email.LeadNotificationData{
				LeadName:    lead.Name,
				LeadEmail:   lead.Email,
				LeadMessage: lead.Message,
				Source:      lead.Source,
				Property:    propertyTitle,
			})
		if err != nil {
			log.Printf("Could not send lead notification email: %v", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Richiesta inviata. Ti ricontatteremo al più presto.",
	})
}

// GetLeads lists submissions for the back-office, newest first.
func GetLeads(c *fiber.Ctx) error {
	query := database.GetDB().Model(&model.Lead{})

	if source := c.Query("source"); source != "" {
		query = query.Where("source = ?", source)
	}
	if propertyID := c.Query("property_id"); propertyID != "" {
		query = query.Where("property_id = ?", propertyID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile caricare le richieste",
		})
	}

	page, perPage, offset := parsePagination(c)

	var leads []model.Lead
	if err := query.Order("created_at DESC").
		Offset(offset).Limit(perPage).
		Preload("Property").
		Find(&leads).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile caricare le richieste",
		})
	}

	return listResponse(c, leads, total, page, perPage)
}

func DeleteLead(c *fiber.Ctx) error {
	var lead model.Lead
	if err := database.GetDB().First(&lead, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Richiesta non trovata",
		})
	}

	if err := database.GetDB().Delete(&lead).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile eliminare la richiesta",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
