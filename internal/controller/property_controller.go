package controller

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"casaviva_backend/internal/model"
	"casaviva_backend/pkg/database"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SimilarLimit caps the "immobili simili" block on unavailable listings.
const SimilarLimit = 3

var propertySorts = map[string]string{
	"recente":     "created_at DESC",
	"prezzo_asc":  "price ASC",
	"prezzo_desc": "price DESC",
	"mq_asc":      "area_sqm ASC",
	"mq_desc":     "area_sqm DESC",
}

type PropertyInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Contract    *string  `json:"contract"`
	Status      *string  `json:"status"`
	AreaSqm     *int     `json:"area_sqm"`
	Rooms       *int     `json:"rooms"`
	Bathrooms   *int     `json:"bathrooms"`
	Floor       *string  `json:"floor"`
	EnergyClass *string  `json:"energy_class"`
	Zone        *string  `json:"zone"`
	VideoURL    *string  `json:"video_url"`
	Slug        *string  `json:"slug"`
}

func activeImages(db *gorm.DB) *gorm.DB {
	return db.Where("archived = ?", false).Order("property_images.position ASC")
}

// ListProperties is the public listing surface. Unknown filter or sort
// values fall back to defaults instead of erroring.
func ListProperties(c *fiber.Ctx) error {
	query := database.GetDB().Model(&model.Property{}).
		Where("status <> ?", model.PropertyStatusArchived)

	if contract := model.ContractType(c.Query("contratto")); model.ValidContract(contract) {
		query = query.Where("contract = ?", contract)
	}
	if min, err := strconv.ParseFloat(c.Query("prezzo_min"), 64); err == nil && min > 0 {
		query = query.Where("price >= ?", min)
	}
	if max, err := strconv.ParseFloat(c.Query("prezzo_max"), 64); err == nil && max > 0 {
		query = query.Where("price <= ?", max)
	}
	if minSqm, err := strconv.Atoi(c.Query("mq_min")); err == nil && minSqm > 0 {
		query = query.Where("area_sqm >= ?", minSqm)
	}

	order, ok := propertySorts[c.Query("ordina")]
	if !ok {
		order = propertySorts["recente"]
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile caricare gli immobili",
		})
	}

	page, perPage, offset := parsePagination(c)

	var properties []model.Property
	if err := query.Order(order).Offset(offset).Limit(perPage).
		Preload("Images", activeImages).
		Find(&properties).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile caricare gli immobili",
		})
	}

	return listResponse(c, properties, total, page, perPage)
}

// GetPropertyBySlug returns one listing; for listings off the market it
// also computes the similar-properties block.
func GetPropertyBySlug(c *fiber.Ctx) error {
	var property model.Property
	if err := database.GetDB().
		Where("slug = ? AND status <> ?", c.Params("slug"), model.PropertyStatusArchived).
		Preload("Images", activeImages).
		First(&property).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Immobile non trovato",
		})
	}

	data := fiber.Map{"property": property}
	if property.Unavailable() {
		data["similar"] = similarProperties(&property)
	}

	return c.JSON(fiber.Map{"success": true, "data": data})
}

// similarProperties: same contract, same zone, price within ±20%,
// excluding the listing itself, capped at SimilarLimit. A heuristic,
// not a ranking.
func similarProperties(p *model.Property) []model.Property {
	var similar []model.Property
	database.GetDB().
		Where("contract = ? AND zone = ? AND id <> ? AND status = ?",
			p.Contract, p.Zone, p.ID, model.PropertyStatusAvailable).
		Where("price BETWEEN ? AND ?", p.Price*0.8, p.Price*1.2).
		Order("created_at DESC").
		Limit(SimilarLimit).
		Preload("Images", activeImages).
		Find(&similar)
	return similar
}

func validatePropertyInput(input *PropertyInput, creating bool) fiber.Map {
	errs := fiber.Map{}
	if creating {
		if input.Title == nil || *input.Title == "" {
			errs["title"] = "Il titolo è obbligatorio"
		}
		if input.Price == nil || *input.Price <= 0 {
			errs["price"] = "Il prezzo è obbligatorio"
		}
		if input.Contract == nil || !model.ValidContract(model.ContractType(*input.Contract)) {
			errs["contract"] = "Tipo di contratto non valido"
		}
	} else {
		if input.Title != nil && *input.Title == "" {
			errs["title"] = "Il titolo non può essere vuoto"
		}
		if input.Price != nil && *input.Price <= 0 {
			errs["price"] = "Il prezzo deve essere positivo"
		}
		if input.Contract != nil && !model.ValidContract(model.ContractType(*input.Contract)) {
			errs["contract"] = "Tipo di contratto non valido"
		}
	}
	if input.Status != nil && !model.ValidPropertyStatus(model.PropertyStatus(*input.Status)) {
		errs["status"] = "Stato non valido"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func applyPropertyInput(p *model.Property, input *PropertyInput) {
	if input.Title != nil {
		p.Title = *input.Title
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	if input.Contract != nil {
		p.Contract = model.ContractType(*input.Contract)
	}
	if input.Status != nil {
		p.Status = model.PropertyStatus(*input.Status)
	}
	if input.AreaSqm != nil {
		p.AreaSqm = *input.AreaSqm
	}
	if input.Rooms != nil {
		p.Rooms = *input.Rooms
	}
	if input.Bathrooms != nil {
		p.Bathrooms = *input.Bathrooms
	}
	if input.Floor != nil {
		p.Floor = *input.Floor
	}
	if input.EnergyClass != nil {
		p.EnergyClass = *input.EnergyClass
	}
	if input.Zone != nil {
		p.Zone = *input.Zone
	}
	if input.VideoURL != nil {
		p.VideoURL = *input.VideoURL
	}
	if input.Slug != nil && *input.Slug != "" {
		p.Slug = *input.Slug
	}
}

// CreateProperty creates a listing from the back-office.
func CreateProperty(c *fiber.Ctx) error {
	input := new(PropertyInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dati non validi",
		})
	}

	if errs := validatePropertyInput(input, true); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Dati non validi",
			"errors": errs,
		})
	}

	property := model.Property{Status: model.PropertyStatusAvailable}
	applyPropertyInput(&property, input)

	if err := database.GetDB().Create(&property).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile creare l'immobile",
		})
	}

	if property.Status == model.PropertyStatusAvailable {
		go notifyListingAsync(property.ID)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    property,
	})
}

// UpdateProperty applies a partial update. A transition off the market
// archives older images; a transition back to disponibile fires the
// subscriber notification.
func UpdateProperty(c *fiber.Ctx) error {
	input := new(PropertyInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dati non validi",
		})
	}

	var property model.Property
	if err := database.GetDB().First(&property, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Immobile non trovato",
		})
	}

	if errs := validatePropertyInput(input, false); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Dati non validi",
			"errors": errs,
		})
	}

	oldStatus := property.Status
	applyPropertyInput(&property, input)

	if err := database.GetDB().Save(&property).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile aggiornare l'immobile",
		})
	}

	if property.Unavailable() && oldStatus != property.Status {
		archiveOlderImages(property.ID)
	}
	if property.Status == model.PropertyStatusAvailable && oldStatus != property.Status {
		go notifyListingAsync(property.ID)
	}

	database.GetDB().Preload("Images", activeImages).First(&property, property.ID)

	return c.JSON(fiber.Map{"success": true, "data": property})
}

func DeleteProperty(c *fiber.Ctx) error {
	var property model.Property
	if err := database.GetDB().First(&property, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Immobile non trovato",
		})
	}

	if err := database.GetDB().Select("Images").Delete(&property).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile eliminare l'immobile",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// archiveOlderImages keeps the newest ActiveImagesKept images active
// and flags the rest archived. Nothing is deleted; a manual restore can
// bring them back.
func archiveOlderImages(propertyID uint) {
	var images []model.PropertyImage
	if err := database.GetDB().
		Where("property_id = ? AND archived = ?", propertyID, false).
		Order("created_at DESC, id DESC").
		Find(&images).Error; err != nil {
		log.Printf("Could not load images for property %d: %v", propertyID, err)
		return
	}

	for i := model.ActiveImagesKept; i < len(images); i++ {
		if err := database.GetDB().Model(&images[i]).Update("archived", true).Error; err != nil {
			log.Printf("Could not archive image %d: %v", images[i].ID, err)
		}
	}
}

// notifyListingAsync fires the notification fan-out through a detached
// self-call authenticated with the cron token. Failure is logged only;
// the triggering request never waits on it.
func notifyListingAsync(propertyID uint) {
	payload, _ := json.Marshal(fiber.Map{"property_id": propertyID})
	req, err := http.NewRequest(http.MethodPost,
		cfg.Server.PublicURL+"/api/admin/notify-listing", bytes.NewBuffer(payload))
	if err != nil {
		log.Printf("Notify listing %d: %v", propertyID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Cron-Token", cfg.Auth.CronToken)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Notify listing %d: %v", propertyID, err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("Notify listing %d: status %d", propertyID, resp.StatusCode)
	}
}
