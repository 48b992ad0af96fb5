package controller

import (
	"context"
	"log"

	"casaviva_backend/internal/model"
	"casaviva_backend/pkg/database"
	"casaviva_backend/pkg/utils/image"

	"github.com/gofiber/fiber/v2"
)

// UploadPostImage stores an article image, deduplicated per post by
// content hash: re-uploading the same bytes returns the existing row.
func UploadPostImage(c *fiber.Ctx) error {
	if storageClient == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Archiviazione immagini non configurata",
		})
	}

	var post model.Post
	if err := database.GetDB().First(&post, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Articolo non trovato",
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

	result, err := storageClient.Upload(c.Context(), "post-images", data, ext, contentType)
	if err != nil {
		log.Printf("Upload for post %d: %v", post.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile caricare l'immagine",
		})
	}

	var existing model.PostImage
	if err := database.GetDB().
		Where("post_id = ? AND hash = ?", post.ID, result.Hash).
		First(&existing).Error; err == nil {
		return c.JSON(fiber.Map{"success": true, "data": existing})
	}

	img := model.PostImage{
		PostID:   post.ID,
		Hash:     result.Hash,
		HotURL:   result.HotURL,
		ColdKey:  result.Key,
		Position: nextPostImagePosition(post.ID),
	}
	if err := database.GetDB().Create(&img).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile salvare l'immagine",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": img})
}

func nextPostImagePosition(postID uint) int {
	position := -1
	database.GetDB().Model(&model.PostImage{}).
		Where("post_id = ?", postID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&position)
	return position + 1
}

func DeletePostImage(c *fiber.Ctx) error {
	var img model.PostImage
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

	if storageClient != nil && img.ColdKey != "" {
		var refs int64
		database.GetDB().Model(&model.PostImage{}).Where("hash = ?", img.Hash).Count(&refs)
		if refs == 0 {
			if err := storageClient.Delete(context.Background(), img.ColdKey); err != nil {
				log.Printf("Could not delete object for image %d: %v", img.ID, err)
			}
		}
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func ReorderPostImages(c *fiber.Ctx) error {
	var post model.Post
	if err := database.GetDB().First(&post, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Articolo non trovato",
		})
	}

	input := new(ReorderInput)
	if err := c.BodyParser(input); err != nil || len(input.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dati non validi",
		})
	}

	for pos, id := range input.IDs {
		if err := database.GetDB().Model(&model.PostImage{}).
			Where("id = ? AND post_id = ?", id, post.ID).
			Update("position", pos).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Impossibile riordinare le immagini",
			})
		}
	}

	return c.JSON(fiber.Map{"success": true})
}

func RestorePostImages(c *fiber.Ctx) error {
	var post model.Post
	if err := database.GetDB().First(&post, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Articolo non trovato",
		})
	}

	if err := database.GetDB().Model(&model.PostImage{}).
		Where("post_id = ? AND archived = ?", post.ID, true).
		Update("archived", false).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile ripristinare le immagini",
		})
	}

	var images []model.PostImage
	database.GetDB().Where("post_id = ?", post.ID).
		Order("position ASC").Find(&images)

	return c.JSON(fiber.Map{"success": true, "data": images})
}
