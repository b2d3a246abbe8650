package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dripmail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/private", Protected(testSecret), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("admin").(string))
	})
	return app
}

func TestProtected(t *testing.T) {
	app := protectedApp()
	valid, err := utils.GenerateJWTToken(testSecret, "admin@acme.test", time.Hour)
	require.NoError(t, err)
	expired, err := utils.GenerateJWTToken(testSecret, "admin@acme.test", -time.Hour)
	require.NoError(t, err)
	foreign, err := utils.GenerateJWTToken("other-secret", "admin@acme.test", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"missing", "", "", fiber.StatusUnauthorized},
		{"bad format", "Token " + valid, "", fiber.StatusUnauthorized},
		{"expired", "Bearer " + expired, "", fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, "", fiber.StatusUnauthorized},
		{"bearer", "Bearer " + valid, "", fiber.StatusOK},
		{"cookie", "", valid, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{
		AllowedOrigins: []string{"https://app.acme.test"},
		AllowedMethods: []string{"GET", "POST"},
		MaxAge:         600,
	}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.acme.test")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://app.acme.test", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", resp.Header.Get("Access-Control-Max-Age"))
	assert.Equal(t, "GET,POST", resp.Header.Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.test")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestPublicRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Post("/forms/1/subscribe", PublicRateLimiter(2, nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/forms/1/subscribe", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/forms/1/subscribe", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
