package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"casaviva_backend/internal/middleware"
	"casaviva_backend/internal/model"
	"casaviva_backend/pkg/config"
	"casaviva_backend/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAdminToken = "test-admin-token"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Property{},
		&model.PropertyImage{},
		&model.Post{},
		&model.PostImage{},
		&model.Lead{},
		&model.Subscription{},
	))
	database.SetDB(db)

	testCfg := &config.Config{}
	testCfg.Server.PublicURL = "http://127.0.0.1:1"
	testCfg.Auth.AdminToken = testAdminToken
	testCfg.Auth.CronToken = "test-cron-token"
	testCfg.Email.AgencyInbox = "inbox@example.com"

	sessions := session.New()
	Init(testCfg, sessions, nil)

	app := fiber.New()
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", Login)
	auth.Post("/logout", Logout)
	auth.Get("/status", AuthStatus)

	subscribe := api.Group("/subscribe")
	subscribe.Post("/", Subscribe)
	subscribe.Put("/", UpdatePreferences)
	subscribe.Get("/confirm/:token", ConfirmSubscription)
	subscribe.Get("/:email", GetSubscription)

	api.Post("/webhooks/brevo", EmailProviderWebhook)

	api.Get("/properties", ListProperties)
	api.Get("/properties/:slug", GetPropertyBySlug)
	api.Get("/posts", ListPosts)
	api.Get("/posts/:id/images", GetPostImages)
	api.Get("/posts/:slug", GetPostBySlug)
	api.Get("/feed.xml", GetFeed)

	api.Post("/leads", CreateLead)

	cronOK := middleware.AdminOrCron(sessions, testCfg.Auth.CronToken)
	api.Post("/admin/notify-listing", cronOK, NotifyListing)
	api.Post("/admin/notify-post", cronOK, NotifyPost)

	admin := api.Group("/admin", middleware.AdminRequired(sessions))
	admin.Post("/properties", CreateProperty)
	admin.Put("/properties/:id", UpdateProperty)
	admin.Delete("/properties/:id", DeleteProperty)
	admin.Put("/properties/:id/images/reorder", ReorderPropertyImages)
	admin.Post("/properties/:id/images/restore", RestorePropertyImages)
	admin.Delete("/properties/images/:image_id", DeletePropertyImage)
	admin.Post("/posts", CreatePost)
	admin.Put("/posts/:id", UpdatePost)
	admin.Delete("/posts/:id", DeletePost)
	admin.Get("/leads", GetLeads)
	admin.Delete("/leads/:id", DeleteLead)

	return app
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]interface{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp, parsed
}

// adminCookie logs in with the shared token and returns the session cookie.
func adminCookie(t *testing.T, app *fiber.App) *http.Cookie {
	t.Helper()
	resp, _ := doJSON(t, app, jsonRequest(http.MethodPost, "/api/auth/login",
		fiber.Map{"token": testAdminToken}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}
