package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NeuralTrust/BotGate/pkg/common"
	"github.com/NeuralTrust/BotGate/pkg/infra/jwt"
	"github.com/NeuralTrust/BotGate/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminApp(manager jwt.Manager) *fiber.App {
	app := fiber.New()
	app.Use(middleware.NewAdminAuthMiddleware(logrus.New(), manager).Middleware())
	app.Get("/api/v1/policy", func(c *fiber.Ctx) error {
		subject, _ := c.Locals(common.SubjectContextKey).(string)
		return c.SendString(subject)
	})
	return app
}

func TestAdminAuth_MissingHeader(t *testing.T) {
	app := newAdminApp(jwt.NewJwtManager("secret"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/policy", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminAuth_WrongScheme(t *testing.T) {
	app := newAdminApp(jwt.NewJwtManager("secret"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/policy", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminAuth_InvalidToken(t *testing.T) {
	other, err := jwt.NewJwtManager("other-secret").CreateToken("ops", time.Hour)
	require.NoError(t, err)
	app := newAdminApp(jwt.NewJwtManager("secret"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/policy", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminAuth_ValidToken(t *testing.T) {
	manager := jwt.NewJwtManager("secret")
	token, err := manager.CreateToken("ops", time.Hour)
	require.NoError(t, err)
	app := newAdminApp(manager)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/policy", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ops", body(t, resp))
}
