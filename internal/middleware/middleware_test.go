package middleware_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/or73/Async-API-Pizza-Delivery/internal/metrics"
	"github.com/or73/Async-API-Pizza-Delivery/internal/middleware"
	"github.com/or73/Async-API-Pizza-Delivery/internal/services"
)

func TestCredentials(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.Credentials())

	var got services.Credentials
	app.Get("/whoami", func(c *fiber.Ctx) error {
		got = middleware.CredentialsFrom(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("email", " a@b.com ")
	req.Header.Set("token", "abcdefghij0123456789")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, services.Credentials{Email: "a@b.com", Token: "abcdefghij0123456789"}, got)
}

func TestCredentialsFromWithoutMiddleware(t *testing.T) {
	app := fiber.New()

	var got services.Credentials
	app.Get("/whoami", func(c *fiber.Ctx) error {
		got = middleware.CredentialsFrom(c)
		return nil
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("email", "a@b.com")

	_, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", got.Email)
	assert.Empty(t, got.Token)
}

func TestMetrics(t *testing.T) {
	m := metrics.New()
	app := fiber.New()
	app.Use(middleware.Metrics(m))
	app.Get("/menus", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("ok")
	})
	app.Post("/menus", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "no")
	})

	for i := 0; i < 2; i++ {
		_, err := app.Test(httptest.NewRequest("GET", "/menus?name=Burger", nil), -1)
		require.NoError(t, err)
	}
	_, err := app.Test(httptest.NewRequest("POST", "/menus", nil), -1)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "/menus", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("POST", "/menus", "418")))
}
