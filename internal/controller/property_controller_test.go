package controller

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"casaviva_backend/internal/model"
	"casaviva_backend/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProperty(t *testing.T, p model.Property) model.Property {
	t.Helper()
	require.NoError(t, database.GetDB().Create(&p).Error)
	return p
}

func TestCreatePropertyReturnsID(t *testing.T) {
	app := newTestApp(t)
	cookie := adminCookie(t, app)

	req := jsonRequest(http.MethodPost, "/api/admin/properties", fiber.Map{
		"title":    "Trilocale in centro",
		"price":    250000.0,
		"contract": "vendita",
		"status":   "disponibile",
		"zone":     "Centro",
		"area_sqm": 95,
	})
	req.AddCookie(cookie)
	resp, body := doJSON(t, app, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	assert.NotZero(t, data["ID"])
	assert.Equal(t, "trilocale-in-centro", data["slug"])
}

func TestCreatePropertyValidationErrors(t *testing.T) {
	app := newTestApp(t)
	cookie := adminCookie(t, app)

	req := jsonRequest(http.MethodPost, "/api/admin/properties", fiber.Map{
		"price": -5.0,
	})
	req.AddCookie(cookie)
	resp, body := doJSON(t, app, req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "price")
	assert.Contains(t, errs, "contract")
}

func TestAdminRoutesRequireSession(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, jsonRequest(http.MethodPost, "/api/admin/properties",
		fiber.Map{"title": "X"}))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSoldTransitionArchivesOlderImages(t *testing.T) {
	app := newTestApp(t)
	cookie := adminCookie(t, app)

	p := seedProperty(t, model.Property{
		Title: "Villa con giardino", Slug: "villa-con-giardino",
		Price: 480000, Contract: model.ContractSale,
		Status: model.PropertyStatusAvailable, Zone: "Collina",
	})

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		img := model.PropertyImage{
			PropertyID: p.ID,
			HotURL:     fmt.Sprintf("https://cdn.test/img-%d.jpg", i),
			Position:   i,
		}
		require.NoError(t, database.GetDB().Create(&img).Error)
		// Spread creation times so "oldest" is well defined.
		require.NoError(t, database.GetDB().Model(&img).
			Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	req := jsonRequest(http.MethodPut, fmt.Sprintf("/api/admin/properties/%d", p.ID),
		fiber.Map{"status": "venduto"})
	req.AddCookie(cookie)
	resp, _ := doJSON(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var active, archived []model.PropertyImage
	database.GetDB().Where("property_id = ? AND archived = ?", p.ID, false).Find(&active)
	database.GetDB().Where("property_id = ? AND archived = ?", p.ID, true).
		Order("created_at ASC").Find(&archived)

	require.Len(t, active, model.ActiveImagesKept)
	require.Len(t, archived, 2)
	assert.Equal(t, "https://cdn.test/img-0.jpg", archived[0].HotURL)
	assert.Equal(t, "https://cdn.test/img-1.jpg", archived[1].HotURL)
}

func TestRestoreImagesClearsArchivedFlag(t *testing.T) {
	app := newTestApp(t)
	cookie := adminCookie(t, app)

	p := seedProperty(t, model.Property{
		Title: "Bilocale", Slug: "bilocale", Price: 120000,
		Contract: model.ContractSale, Status: model.PropertyStatusSold,
	})
	require.NoError(t, database.GetDB().Create(&model.PropertyImage{
		PropertyID: p.ID, HotURL: "https://cdn.test/old.jpg", Archived: true,
	}).Error)

	req := jsonRequest(http.MethodPost, fmt.Sprintf("/api/admin/properties/%d/images/restore", p.ID), nil)
	req.AddCookie(cookie)
	resp, _ := doJSON(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var archived int64
	database.GetDB().Model(&model.PropertyImage{}).
		Where("property_id = ? AND archived = ?", p.ID, true).Count(&archived)
	assert.Zero(t, archived)
}

func TestReorderAssignsPositions(t *testing.T) {
	app := newTestApp(t)
	cookie := adminCookie(t, app)

	p := seedProperty(t, model.Property{
		Title: "Attico", Slug: "attico", Price: 300000,
		Contract: model.ContractSale, Status: model.PropertyStatusAvailable,
	})
	var ids []uint
	for i := 0; i < 3; i++ {
		img := model.PropertyImage{PropertyID: p.ID, HotURL: fmt.Sprintf("u%d", i), Position: i}
		require.NoError(t, database.GetDB().Create(&img).Error)
		ids = append(ids, img.ID)
	}

	req := jsonRequest(http.MethodPut, fmt.Sprintf("/api/admin/properties/%d/images/reorder", p.ID),
		fiber.Map{"ids": []uint{ids[2], ids[0], ids[1]}})
	req.AddCookie(cookie)
	resp, _ := doJSON(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var first model.PropertyImage
	require.NoError(t, database.GetDB().First(&first, ids[2]).Error)
	assert.Equal(t, 0, first.Position)
}

func TestNextImagePositionAfterDeletion(t *testing.T) {
	newTestApp(t)

	p := seedProperty(t, model.Property{
		Title: "Loft", Slug: "loft", Price: 210000,
		Contract: model.ContractSale, Status: model.PropertyStatusAvailable,
	})

	var imgs []model.PropertyImage
	for i := 0; i < 3; i++ {
		img := model.PropertyImage{PropertyID: p.ID, HotURL: fmt.Sprintf("u%d", i), Position: i}
		require.NoError(t, database.GetDB().Create(&img).Error)
		imgs = append(imgs, img)
	}

	// Deleting a middle image must not let the next upload land on a
	// position that is still taken.
	require.NoError(t, database.GetDB().Delete(&imgs[1]).Error)
	assert.Equal(t, 3, nextPropertyImagePosition(p.ID))

	// No images at all starts back at zero.
	empty := seedProperty(t, model.Property{
		Title: "Vuoto", Slug: "vuoto", Price: 100000,
		Contract: model.ContractSale, Status: model.PropertyStatusAvailable,
	})
	assert.Equal(t, 0, nextPropertyImagePosition(empty.ID))
}

func TestSimilarPropertiesBounds(t *testing.T) {
	app := newTestApp(t)

	sold := seedProperty(t, model.Property{
		Title: "Venduto", Slug: "venduto-zona-z", Price: 300000,
		Contract: model.ContractSale, Status: model.PropertyStatusSold, Zone: "Z",
	})

	inRange := []float64{240000, 300000, 360000}
	for i, price := range inRange {
		seedProperty(t, model.Property{
			Title: fmt.Sprintf("Simile %d", i), Slug: fmt.Sprintf("simile-%d", i),
			Price: price, Contract: model.ContractSale,
			Status: model.PropertyStatusAvailable, Zone: "Z",
		})
	}
	// Out of the ±20% band, wrong zone, wrong contract: all excluded.
	seedProperty(t, model.Property{
		Title: "Troppo caro", Slug: "troppo-caro", Price: 380000,
		Contract: model.ContractSale, Status: model.PropertyStatusAvailable, Zone: "Z",
	})
	seedProperty(t, model.Property{
		Title: "Economico", Slug: "economico", Price: 230000,
		Contract: model.ContractSale, Status: model.PropertyStatusAvailable, Zone: "Z",
	})
	seedProperty(t, model.Property{
		Title: "Altra zona", Slug: "altra-zona", Price: 300000,
		Contract: model.ContractSale, Status: model.PropertyStatusAvailable, Zone: "W",
	})
	seedProperty(t, model.Property{
		Title: "Affitto", Slug: "affitto-z", Price: 300000,
		Contract: model.ContractRental, Status: model.PropertyStatusAvailable, Zone: "Z",
	})

	resp, body := doJSON(t, app, jsonRequest(http.MethodGet, "/api/properties/venduto-zona-z", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	similar := data["similar"].([]interface{})
	require.LessOrEqual(t, len(similar), SimilarLimit)
	for _, raw := range similar {
		item := raw.(map[string]interface{})
		price := item["price"].(float64)
		assert.GreaterOrEqual(t, price, 240000.0)
		assert.LessOrEqual(t, price, 360000.0)
		assert.NotEqual(t, float64(sold.ID), item["ID"])
		assert.Equal(t, "Z", item["zone"])
	}
}

func TestListPropertiesFiltersAndSorts(t *testing.T) {
	app := newTestApp(t)

	seedProperty(t, model.Property{Title: "A", Slug: "a", Price: 100000,
		Contract: model.ContractSale, Status: model.PropertyStatusAvailable, AreaSqm: 50})
	seedProperty(t, model.Property{Title: "B", Slug: "b", Price: 200000,
		Contract: model.ContractSale, Status: model.PropertyStatusAvailable, AreaSqm: 90})
	seedProperty(t, model.Property{Title: "C", Slug: "c", Price: 900,
		Contract: model.ContractRental, Status: model.PropertyStatusAvailable, AreaSqm: 70})
	seedProperty(t, model.Property{Title: "Nascosto", Slug: "nascosto", Price: 1,
		Contract: model.ContractSale, Status: model.PropertyStatusArchived})

	resp, body := doJSON(t, app, jsonRequest(http.MethodGet,
		"/api/properties?contratto=vendita&ordina=prezzo_asc", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].(map[string]interface{})["title"])

	pagination := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total"])
	assert.Equal(t, float64(1), pagination["page"])

	// Unknown filter and sort values are ignored, not an error.
	resp, body = doJSON(t, app, jsonRequest(http.MethodGet,
		"/api/properties?contratto=permuta&ordina=casuale", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["pagination"].(map[string]interface{})["total"])
}

func TestGetPropertyBySlugNotFound(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, jsonRequest(http.MethodGet, "/api/properties/inesistente", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
