package controller

import (
	"context"
	"log"

	"casaviva_backend/internal/model"
	"casaviva_backend/pkg/database"
	"casaviva_backend/pkg/utils/image"

	"github.com/gofiber/fiber/v2"
)

// UploadPropertyImage recompresses the upload and stores it on the
// bucket under its content hash.
func UploadPropertyImage(c *fiber.Ctx) error {
	if storageClient == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Archiviazione immagini non configurata",
		})
	}

	var property model.Property
	if err := database.GetDB().First(&property, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Immobile non trovato",
		})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Nessun file caricato",
		})
	}
	if err := image.Validate(file); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	data, ext, contentType, err := image.Process(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Immagine non elaborabile",
		})
	}

	result, err := storageClient.Upload(c.Context(), "property-images", data, ext, contentType)
	if err != nil {
		log.Printf("Upload for property %d: %v", property.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile caricare l'immagine",
		})
	}

	img := model.PropertyImage{
		PropertyID: property.ID,
		HotURL:     result.HotURL,
		ColdURL:    result.ColdURL,
		Hash:       result.Hash,
		Position:   nextPropertyImagePosition(property.ID),
	}
	if err := database.GetDB().Create(&img).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile salvare l'immagine",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": img})
}

// nextPropertyImagePosition returns max(position)+1 so a deletion
// mid-sequence never hands a new upload an already-taken slot.
func nextPropertyImagePosition(propertyID uint) int {
	position := -1
	database.GetDB().Model(&model.PropertyImage{}).
		Where("property_id = ?", propertyID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&position)
	return position + 1
}

// DeletePropertyImage removes the row; the object is deleted from the
// bucket only when no other row still references the same hash.
func DeletePropertyImage(c *fiber.Ctx) error {
	var img model.PropertyImage
	if err := database.GetDB().First(&img, c.Params("image_id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Immagine non trovata",
		})
	}

	if err := database.GetDB().Delete(&img).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile eliminare l'immagine",
		})
	}

	if storageClient != nil && img.Hash != "" {
		var refs int64
		database.GetDB().Model(&model.PropertyImage{}).Where("hash = ?", img.Hash).Count(&refs)
		if refs == 0 {
			if err := storageClient.Delete(context.Background(), storageClient.KeyFromURL(img.HotURL)); err != nil {
				log.Printf("Could not delete object for image %d: %v", img.ID, err)
			}
		}
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type ReorderInput struct {
	IDs []uint `json:"ids"`
}

// ReorderPropertyImages reassigns positions following the submitted id
// order. Updates are independent row writes, as elsewhere in the app.
func ReorderPropertyImages(c *fiber.Ctx) error {
	var property model.Property
	if err := database.GetDB().First(&property, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Immobile non trovato",
		})
	}

	input := new(ReorderInput)
	if err := c.BodyParser(input); err != nil || len(input.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dati non validi",
		})
	}

	for pos, id := range input.IDs {
		if err := database.GetDB().Model(&model.PropertyImage{}).
			Where("id = ? AND property_id = ?", id, property.ID).
			Update("position", pos).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Impossibile riordinare le immagini",
			})
		}
	}

	return c.JSON(fiber.Map{"success": true})
}

// RestorePropertyImages clears the archived flag on every image of a
// listing, the manual counterpart of the automatic archiving on sale.
func RestorePropertyImages(c *fiber.Ctx) error {
	var property model.Property
	if err := database.GetDB().First(&property, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Immobile non trovato",
		})
	}

	if err := database.GetDB().Model(&model.PropertyImage{}).
		Where("property_id = ? AND archived = ?", property.ID, true).
		Update("archived", false).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile ripristinare le immagini",
		})
	}

	var images []model.PropertyImage
	database.GetDB().Where("property_id = ?", property.ID).
		Order("position ASC").Find(&images)

	return c.JSON(fiber.Map{"success": true, "data": images})
}
