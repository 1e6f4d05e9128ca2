package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	handlers "github.com/NeuralTrust/BotGate/pkg/handlers/http"
	"github.com/NeuralTrust/BotGate/pkg/infra/jwt"
	"github.com/NeuralTrust/BotGate/pkg/middleware"
	"github.com/NeuralTrust/BotGate/pkg/server/router"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedHandler string

func (h namedHandler) Handle(c *fiber.Ctx) error {
	return c.SendString(string(h))
}

func fullTransport() *handlers.HandlerTransport {
	return &handlers.HandlerTransport{
		ForwardedHandler:       namedHandler("forwarded"),
		GetPolicyHandler:       namedHandler("get-policy"),
		UpdatePolicyHandler:    namedHandler("update-policy"),
		ClassifyHandler:        namedHandler("classify"),
		GetStatsHandler:        namedHandler("stats"),
		ListDecisionsHandler:   namedHandler("decisions"),
		RecentDecisionsHandler: namedHandler("recent"),
		InvalidateCacheHandler: namedHandler("invalidate"),
		GetVersionHandler:      namedHandler("version"),
	}
}

func call(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := make([]byte, 64)
	n, _ := resp.Body.Read(buf)
	return resp.StatusCode, string(buf[:n])
}

func TestAdminRouter(t *testing.T) {
	logger, _ := test.NewNullLogger()
	manager := jwt.NewJwtManager("secret")
	token, err := manager.CreateToken("ops", time.Hour)
	require.NoError(t, err)

	app := fiber.New()
	r := router.NewAdminRouter(
		middleware.NewTransport(middleware.NewAdminAuthMiddleware(logger, manager)),
		fullTransport(),
	)
	require.NoError(t, r.BuildRoutes(app))

	status, body := call(t, app, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "version", body)

	for _, path := range []string{"/health", router.HealthPath} {
		status, _ = call(t, app, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, status, path)
	}

	status, _ = call(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/policy", nil))
	assert.Equal(t, http.StatusUnauthorized, status)

	routes := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/api/v1/policy", "get-policy"},
		{http.MethodPut, "/api/v1/policy", "update-policy"},
		{http.MethodPost, "/api/v1/classify", "classify"},
		{http.MethodGet, "/api/v1/stats", "stats"},
		{http.MethodGet, "/api/v1/decisions", "decisions"},
		{http.MethodGet, "/api/v1/decisions/recent", "recent"},
		{http.MethodPost, "/api/v1/invalidate-cache", "invalidate"},
	}
	for _, tc := range routes {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		status, body := call(t, app, req)
		assert.Equal(t, http.StatusOK, status, tc.path)
		assert.Equal(t, tc.want, body, tc.path)
	}
}

func TestAdminRouter_MissingTransport(t *testing.T) {
	err := router.NewAdminRouter(nil, nil).BuildRoutes(fiber.New())
	assert.ErrorIs(t, err, router.ErrInvalidHandlerTransport)
}

type tagMiddleware struct{}

func (tagMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Tag", "seen")
		return c.Next()
	}
}

func TestProxyRouter(t *testing.T) {
	app := fiber.New()
	r := router.NewProxyRouter(middleware.NewTransport(tagMiddleware{}), fullTransport())
	require.NoError(t, r.BuildRoutes(app))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, router.HealthPath, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Tag"))

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/any/page?x=1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "seen", resp.Header.Get("X-Tag"))
}

func TestProxyRouter_SiteHealthPathIsForwarded(t *testing.T) {
	app := fiber.New()
	r := router.NewProxyRouter(middleware.NewTransport(tagMiddleware{}), fullTransport())
	require.NoError(t, r.BuildRoutes(app))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	status, body := call(t, app, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "forwarded", body)

	status, _ = call(t, app, httptest.NewRequest(http.MethodGet, router.PingPath, nil))
	assert.Equal(t, http.StatusOK, status)
}
