package http_test

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NeuralTrust/BotGate/pkg/detection"
	"github.com/NeuralTrust/BotGate/pkg/domain/audit"
	auditMocks "github.com/NeuralTrust/BotGate/pkg/domain/audit/mocks"
	domain "github.com/NeuralTrust/BotGate/pkg/domain/policy"
	handler "github.com/NeuralTrust/BotGate/pkg/handlers/http"
	"github.com/NeuralTrust/BotGate/pkg/handlers/http/response"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache/event"
	cacheMocks "github.com/NeuralTrust/BotGate/pkg/infra/cache/mocks"
	"github.com/NeuralTrust/BotGate/pkg/infra/fingerprint"
	"github.com/NeuralTrust/BotGate/pkg/infra/httpx"
	"github.com/NeuralTrust/BotGate/pkg/version"
	"github.com/go-redis/redismock/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newAnalyzer() *detection.BehaviorAnalyzer {
	return detection.NewBehaviorAnalyzer(cache.NewTTLMap[*detection.TimingWindow](time.Minute, 100))
}

func newClassifier() *detection.Classifier {
	logger, _ := test.NewNullLogger()
	return detection.NewClassifier(logger, newAnalyzer())
}

func TestGetStatsHandler(t *testing.T) {
	logger, _ := test.NewNullLogger()
	db, redisMock := redismock.NewClientMock()
	stats := cache.NewDecisionStats(cache.WrapRedis(db))

	app := fiber.New()
	app.Get("/stats", handler.NewGetStatsHandler(logger, stats).Handle)

	redisMock.ExpectHGetAll("botgate:decisions:2025-03-01").SetVal(map[string]string{
		"ALLOW:human":                   "7",
		"REDIRECT_PAYWALL:ai_assistant": "2",
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stats?day=2025-03-01", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got cache.DayCounters
	decode(t, resp, &got)
	assert.Equal(t, "2025-03-01", got.Day)
	assert.Equal(t, int64(9), got.Total)
	assert.Equal(t, int64(2), got.ByAction["REDIRECT_PAYWALL"])
	assert.NoError(t, redisMock.ExpectationsWereMet())

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/stats?day=yesterday", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetStatsHandler_WithoutRedis(t *testing.T) {
	logger, _ := test.NewNullLogger()
	app := fiber.New()
	app.Get("/stats", handler.NewGetStatsHandler(logger, nil).Handle)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRecentDecisionsHandler(t *testing.T) {
	logger, hook := test.NewNullLogger()
	db, redisMock := redismock.NewClientMock()
	stats := cache.NewDecisionStats(cache.WrapRedis(db))

	app := fiber.New()
	app.Get("/recent", handler.NewRecentDecisionsHandler(logger, stats).Handle)

	valid, err := json.Marshal(audit.Record{
		ID:       "r-1",
		Identity: audit.Identity{IP: "203.0.113.9"},
		Path:     "/menu",
		Decision: domain.Decision{Action: domain.ActionRedirectPaywall, Reason: domain.ReasonAIAssistant},
	})
	require.NoError(t, err)
	redisMock.ExpectLRange(cache.RecentDecisionsKey, 0, 4).SetVal([]string{string(valid), "{broken"})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/recent?limit=5", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Decisions []response.RecentDecision `json:"decisions"`
		Count     int                       `json:"count"`
	}
	decode(t, resp, &got)
	require.Equal(t, 1, got.Count)
	assert.Equal(t, "r-1", got.Decisions[0].ID)
	assert.Equal(t, "REDIRECT_PAYWALL", got.Decisions[0].Action)
	assert.Equal(t, "203.0.113.9", got.Decisions[0].IP)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "skipping malformed recent decision", hook.LastEntry().Message)
	assert.NoError(t, redisMock.ExpectationsWereMet())

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/recent?limit=1000", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListDecisionsHandler(t *testing.T) {
	logger, _ := test.NewNullLogger()

	t.Run("passes the filter through", func(t *testing.T) {
		repo := new(auditMocks.MockRepository)
		repo.On("List", mock.Anything, audit.Filter{
			Category: "ai_assistant",
			Action:   "REDIRECT_PAYWALL",
			IP:       "203.0.113.9",
			Limit:    10,
		}).Return([]*audit.Record{{ID: "a"}, {ID: "b"}}, nil).Once()

		app := fiber.New()
		app.Get("/decisions", handler.NewListDecisionsHandler(logger, repo).Handle)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet,
			"/decisions?category=ai_assistant&action=REDIRECT_PAYWALL&ip=203.0.113.9&limit=10", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got struct {
			Decisions []audit.Record `json:"decisions"`
			Count     int            `json:"count"`
		}
		decode(t, resp, &got)
		assert.Equal(t, 2, got.Count)
		assert.Equal(t, "b", got.Decisions[1].ID)
		repo.AssertExpectations(t)
	})

	t.Run("rejects unknown filters", func(t *testing.T) {
		repo := new(auditMocks.MockRepository)
		app := fiber.New()
		app.Get("/decisions", handler.NewListDecisionsHandler(logger, repo).Handle)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/decisions?category=martian", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/decisions?action=MAYBE", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := new(auditMocks.MockRepository)
		repo.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()
		app := fiber.New()
		app.Get("/decisions", handler.NewListDecisionsHandler(logger, repo).Handle)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/decisions", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("not configured", func(t *testing.T) {
		app := fiber.New()
		app.Get("/decisions", handler.NewListDecisionsHandler(logger, nil).Handle)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/decisions", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestInvalidateCacheHandler(t *testing.T) {
	logger, _ := test.NewNullLogger()
	analyzer := newAnalyzer()
	analyzer.Analyze(fingerprint.New("203.0.113.9", "curl/8.0"), "/", time.Now())
	analyzer.Analyze(fingerprint.New("203.0.113.10", "curl/8.0"), "/", time.Now())
	require.Equal(t, 2, analyzer.Windows())

	db, redisMock := redismock.NewClientMock()
	stats := cache.NewDecisionStats(cache.WrapRedis(db))
	redisMock.ExpectScan(0, cache.DecisionKeysPattern, 100).SetVal([]string{"botgate:decisions:2025-03-01"}, 0)
	redisMock.ExpectDel("botgate:decisions:2025-03-01").SetVal(1)

	publisher := new(cacheMocks.MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(ev event.Event) bool {
		return ev.Type() == event.ResetBehaviorEventType
	})).Return(nil).Once()

	app := fiber.New()
	app.Post("/invalidate", handler.NewInvalidateCacheHandler(logger, analyzer, stats, publisher).Handle)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/invalidate?stats=true", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]interface{}
	decode(t, resp, &got)
	assert.Equal(t, float64(2), got["windows_dropped"])
	assert.Equal(t, true, got["broadcast"])
	assert.Equal(t, float64(1), got["stats_keys_removed"])
	assert.Equal(t, 0, analyzer.Windows())
	publisher.AssertExpectations(t)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestInvalidateCacheHandler_BroadcastFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	publisher := new(cacheMocks.MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

	app := fiber.New()
	app.Post("/invalidate", handler.NewInvalidateCacheHandler(logger, newAnalyzer(), nil, publisher).Handle)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/invalidate", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGetVersionHandler(t *testing.T) {
	logger, _ := test.NewNullLogger()
	app := fiber.New()
	app.Get("/version", handler.NewGetVersionHandler(logger).Handle)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/version", nil))
	require.NoError(t, err)

	var got version.Info
	decode(t, resp, &got)
	assert.Equal(t, version.AppName, got.AppName)
	assert.Equal(t, version.Version, got.Version)
}

func TestForwardedHandler(t *testing.T) {
	logger, _ := test.NewNullLogger()

	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("origin:" + string(ctx.Path()))
	}}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	forwarder, err := httpx.NewForwarder("http://origin.internal",
		httpx.WithDial(func(string) (net.Conn, error) { return ln.Dial() }))
	require.NoError(t, err)

	app := fiber.New()
	app.Use(handler.NewForwardedHandler(logger, forwarder).Handle)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/menu", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "origin:/menu", readBody(t, resp))
}

func TestForwardedHandler_UpstreamDown(t *testing.T) {
	logger, _ := test.NewNullLogger()

	ln := fasthttputil.NewInmemoryListener()
	require.NoError(t, ln.Close())

	forwarder, err := httpx.NewForwarder("http://origin.internal",
		httpx.WithDial(func(string) (net.Conn, error) { return ln.Dial() }))
	require.NoError(t, err)

	app := fiber.New()
	app.Use(handler.NewForwardedHandler(logger, forwarder).Handle)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/menu", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestForwardedHandler_NoUpstream(t *testing.T) {
	logger, _ := test.NewNullLogger()
	app := fiber.New()
	app.Use(handler.NewForwardedHandler(logger, nil).Handle)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
