package controller

import (
	"encoding/json"
	"time"

	"casaviva_backend/internal/model"
	"casaviva_backend/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
)

type PostInput struct {
	Title          *string  `json:"title"`
	Subtitle       *string  `json:"subtitle"`
	Slug           *string  `json:"slug"`
	Cover          *string  `json:"cover"`
	Content        *string  `json:"content"`
	Tags           []string `json:"tags"`
	Category       *string  `json:"category"`
	Author         *string  `json:"author"`
	Status         *string  `json:"status"`
	SeoTitle       *string  `json:"seo_title"`
	SeoDescription *string  `json:"seo_description"`
}

// ListPosts returns published articles, newest first.
func ListPosts(c *fiber.Ctx) error {
	query := database.GetDB().Model(&model.Post{}).
		Where("status = ?", model.PostStatusPublished)

	if category := c.Query("categoria"); category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile caricare gli articoli",
		})
	}

	page, perPage, offset := parsePagination(c)

	var posts []model.Post
	if err := query.Order("published_at DESC").
		Offset(offset).Limit(perPage).
		Find(&posts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile caricare gli articoli",
		})
	}

	return listResponse(c, posts, total, page, perPage)
}

func GetPostBySlug(c *fiber.Ctx) error {
	var post model.Post
	if err := database.GetDB().
		Where("slug = ? AND status = ?", c.Params("slug"), model.PostStatusPublished).
		First(&post).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Articolo non trovato",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": post})
}

// GetPostImages lists the active images of an article in display order.
func GetPostImages(c *fiber.Ctx) error {
	var post model.Post
	if err := database.GetDB().First(&post, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Articolo non trovato",
		})
	}

	var images []model.PostImage
	database.GetDB().
		Where("post_id = ? AND archived = ?", post.ID, false).
		Order("position ASC").
		Find(&images)

	return c.JSON(fiber.Map{"success": true, "data": images})
}

// slugTaken does a linear scan over all post slugs. Fine at blog scale.
func slugTaken(s string, excludeID uint) bool {
	var posts []model.Post
	database.GetDB().Select("id", "slug").Find(&posts)
	for _, p := range posts {
		if p.Slug == s && p.ID != excludeID {
			return true
		}
	}
	return false
}

// validatePostInput enforces required fields only when the target
// status is pubblicato; drafts may be incomplete.
func validatePostInput(post *model.Post) fiber.Map {
	if post.Status != model.PostStatusPublished {
		return nil
	}
	errs := fiber.Map{}
	if post.Title == "" {
		errs["title"] = "Il titolo è obbligatorio per la pubblicazione"
	}
	if post.Content == "" {
		errs["content"] = "Il contenuto è obbligatorio per la pubblicazione"
	}
	if post.Cover == "" {
		errs["cover"] = "L'immagine di copertina è obbligatoria per la pubblicazione"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func applyPostInput(post *model.Post, input *PostInput) {
	if input.Title != nil {
		post.Title = *input.Title
	}
	if input.Subtitle != nil {
		post.Subtitle = *input.Subtitle
	}
	if input.Slug != nil && *input.Slug != "" {
		post.Slug = slug.Make(*input.Slug)
	}
	if input.Cover != nil {
		post.Cover = *input.Cover
	}
	if input.Content != nil {
		post.Content = *input.Content
		post.ReadingTime = model.EstimateReadingTime(post.Content)
	}
	if input.Tags != nil {
		post.Tags = marshalTags(input.Tags)
	}
	if input.Category != nil {
		post.Category = *input.Category
	}
	if input.Author != nil {
		post.Author = *input.Author
	}
	if input.SeoTitle != nil {
		post.SeoTitle = *input.SeoTitle
	}
	if input.SeoDescription != nil {
		post.SeoDescription = *input.SeoDescription
	}
	if input.Status != nil && model.ValidPostStatus(model.PostStatus(*input.Status)) {
		post.Status = model.PostStatus(*input.Status)
	}
	if post.Status == model.PostStatusPublished && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}
}

func marshalTags(tags []string) datatypes.JSON {
	out, _ := json.Marshal(tags)
	return datatypes.JSON(out)
}

func CreatePost(c *fiber.Ctx) error {
	input := new(PostInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dati non validi",
		})
	}

	post := model.Post{Status: model.PostStatusDraft}
	applyPostInput(&post, input)

	if post.Slug == "" && post.Title != "" {
		post.Slug = slug.Make(post.Title)
	}
	if post.Slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Dati non validi",
			"errors": fiber.Map{"title": "Titolo o slug obbligatorio"},
		})
	}
	if slugTaken(post.Slug, 0) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Dati non validi",
			"errors": fiber.Map{"slug": "Slug già in uso"},
		})
	}

	if errs := validatePostInput(&post); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Dati non validi",
			"errors": errs,
		})
	}

	if err := database.GetDB().Create(&post).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile creare l'articolo",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": post})
}

func UpdatePost(c *fiber.Ctx) error {
	input := new(PostInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dati non validi",
		})
	}

	var post model.Post
	if err := database.GetDB().First(&post, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Articolo non trovato",
		})
	}

	applyPostInput(&post, input)

	if slugTaken(post.Slug, post.ID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Dati non validi",
			"errors": fiber.Map{"slug": "Slug già in uso"},
		})
	}

	if errs := validatePostInput(&post); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Dati non validi",
			"errors": errs,
		})
	}

	if err := database.GetDB().Save(&post).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile aggiornare l'articolo",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": post})
}

func DeletePost(c *fiber.Ctx) error {
	var post model.Post
	if err := database.GetDB().First(&post, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Articolo non trovato",
		})
	}

	if err := database.GetDB().Select("Images").Delete(&post).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile eliminare l'articolo",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
