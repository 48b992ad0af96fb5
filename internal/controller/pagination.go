package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPerPage = 12
	maxPerPage     = 50
)

// parsePagination reads page/per_page query params; anything invalid
// falls back to defaults rather than erroring.
func parsePagination(c *fiber.Ctx) (page, perPage, offset int) {
	page = 1
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	perPage = defaultPerPage
	if v, err := strconv.Atoi(c.Query("per_page")); err == nil && v > 0 && v <= maxPerPage {
		perPage = v
	}
	return page, perPage, (page - 1) * perPage
}

func paginationMap(total int64, page, perPage int) fiber.Map {
	totalPages := int(total) / perPage
	if int(total)%perPage != 0 {
		totalPages++
	}
	return fiber.Map{
		"total":      total,
		"page":       page,
		"perPage":    perPage,
		"totalPages": totalPages,
	}
}

func listResponse(c *fiber.Ctx, items interface{}, total int64, page, perPage int) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"items":      items,
			"pagination": paginationMap(total, page, perPage),
		},
	})
}
