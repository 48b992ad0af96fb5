package controller

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginWithSharedToken(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, jsonRequest(http.MethodPost, "/api/auth/login",
		fiber.Map{"token": testAdminToken}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, resp.Cookies())
}

func TestLoginRejectsWrongToken(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, jsonRequest(http.MethodPost, "/api/auth/login",
		fiber.Map{"token": "sbagliato"}))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthStatusReflectsSession(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, jsonRequest(http.MethodGet, "/api/auth/status", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["data"].(map[string]interface{})["authenticated"])

	cookie := adminCookie(t, app)
	req := jsonRequest(http.MethodGet, "/api/auth/status", nil)
	req.AddCookie(cookie)
	resp, body = doJSON(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["data"].(map[string]interface{})["authenticated"])
}

func TestLogoutDropsSession(t *testing.T) {
	app := newTestApp(t)
	cookie := adminCookie(t, app)

	req := jsonRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(cookie)
	resp, _ := doJSON(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req = jsonRequest(http.MethodGet, "/api/admin/leads", nil)
	req.AddCookie(cookie)
	resp, _ = doJSON(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNotifyEndpointsAcceptCronToken(t *testing.T) {
	app := newTestApp(t)

	// No session, no token: rejected.
	resp, _ := doJSON(t, app, jsonRequest(http.MethodPost, "/api/admin/notify-listing",
		fiber.Map{"property_id": 1}))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Cron token, unknown property: authorized but 404.
	req := jsonRequest(http.MethodPost, "/api/admin/notify-listing",
		fiber.Map{"property_id": 12345})
	req.Header.Set("X-Cron-Token", "test-cron-token")
	resp, _ = doJSON(t, app, req)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
