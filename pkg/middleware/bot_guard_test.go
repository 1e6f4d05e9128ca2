package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/NeuralTrust/BotGate/pkg/common"
	"github.com/NeuralTrust/BotGate/pkg/config"
	"github.com/NeuralTrust/BotGate/pkg/detection"
	"github.com/NeuralTrust/BotGate/pkg/domain/audit"
	"github.com/NeuralTrust/BotGate/pkg/domain/classification"
	domain "github.com/NeuralTrust/BotGate/pkg/domain/policy"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache"
	"github.com/NeuralTrust/BotGate/pkg/infra/fingerprint"
	"github.com/NeuralTrust/BotGate/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	gptbotUA = "Mozilla/5.0 (compatible; GPTBot/1.0; +https://openai.com/gptbot)"
	googleUA = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

type recordingAudit struct {
	mu      sync.Mutex
	records []*audit.Record
}

func (r *recordingAudit) Emit(record *audit.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}

func (r *recordingAudit) Close() error { return nil }

func (r *recordingAudit) last(t *testing.T) *audit.Record {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.records)
	return r.records[len(r.records)-1]
}

func newGuardApp(t *testing.T, policy config.BotPolicyConfig) (*fiber.App, *recordingAudit) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store, err := config.NewPolicyStore(logger, policy)
	require.NoError(t, err)

	resolver := fingerprint.NewResolver()
	analyzer := detection.NewBehaviorAnalyzer(cache.NewTTLMap[*detection.TimingWindow](time.Minute, 100))
	recorder := &recordingAudit{}

	app := fiber.New()
	app.Use(middleware.NewIdentityMiddleware(logger, resolver).Middleware())
	app.Use(middleware.NewBotGuardMiddleware(middleware.BotGuardDeps{
		Logger:     logger,
		Classifier: detection.NewClassifier(logger, analyzer),
		Policies:   store,
		Resolver:   resolver,
		Audit:      recorder,
	}).Middleware())
	app.Use(func(c *fiber.Ctx) error {
		return c.SendString(c.Get(common.CategoryHeader) + "|" + c.Get(common.IsBotHeader))
	})
	return app, recorder
}

func browserRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Ch-Ua", `"Chromium";v="124", "Google Chrome";v="124"`)
	req.Header.Set("Sec-Ch-Ua-Mobile", "?0")
	req.Header.Set("Sec-Ch-Ua-Platform", `"Windows"`)
	return req
}

func botRequest(path, ua string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", ua)
	return req
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestBotGuard_HumanIsAllowedAndAnnotated(t *testing.T) {
	app, recorder := newGuardApp(t, config.DefaultBotPolicy())

	req := browserRequest("/menu")
	req.Header.Set(common.CategoryHeader, "search_engine")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "human|false", body(t, resp))

	record := recorder.last(t)
	assert.Equal(t, "/menu", record.Path)
	assert.Equal(t, http.MethodGet, record.Method)
	assert.Equal(t, domain.ActionAllow, record.Decision.Action)
	assert.Equal(t, domain.ReasonHuman, record.Decision.Reason)
	assert.NotEmpty(t, record.ID)
	assert.NotEmpty(t, record.TraceID)
	require.NotNil(t, record.UAInfo)
	assert.Contains(t, record.UAInfo.Browser, "Chrome")
}

func TestBotGuard_AIAssistantIsRedirectedToPaywall(t *testing.T) {
	app, recorder := newGuardApp(t, config.DefaultBotPolicy())

	resp, err := app.Test(botRequest("/menu?page=2", gptbotUA))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, string(domain.ActionRedirectPaywall), resp.Header.Get(common.DecisionHeader))

	location, err := url.Parse(resp.Header.Get(fiber.HeaderLocation))
	require.NoError(t, err)
	assert.Equal(t, "/paywall", location.Path)
	assert.Equal(t, "ai_assistant", location.Query().Get("category"))
	assert.Equal(t, "/menu?page=2", location.Query().Get("returnUrl"))

	record := recorder.last(t)
	assert.Equal(t, classification.CategoryAIAssistant, record.Verdict.Category)
	assert.Equal(t, domain.ReasonAIAssistant, record.Decision.Reason)
}

func TestBotGuard_AIAssistantOnPublicPath(t *testing.T) {
	app, _ := newGuardApp(t, config.DefaultBotPolicy())

	resp, err := app.Test(botRequest("/robots.txt", gptbotUA))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ai_assistant|true", body(t, resp))
}

func TestBotGuard_PaywallPathNeverRedirects(t *testing.T) {
	app, recorder := newGuardApp(t, config.DefaultBotPolicy())

	resp, err := app.Test(botRequest("/paywall?returnUrl=%2Fmenu", gptbotUA))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.ReasonPaywallPath, recorder.last(t).Decision.Reason)
}

func TestBotGuard_SearchEngineOnAllowedPath(t *testing.T) {
	app, _ := newGuardApp(t, config.DefaultBotPolicy())

	resp, err := app.Test(botRequest("/blog/first-post", googleUA))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "search_engine|true", body(t, resp))
}

func TestBotGuard_SearchEngineOnRestrictedPath(t *testing.T) {
	app, recorder := newGuardApp(t, config.DefaultBotPolicy())

	resp, err := app.Test(botRequest("/account", googleUA))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, domain.ReasonAuthorizedRestrictedPath, recorder.last(t).Decision.Reason)
}

func TestBotGuard_BypassHeader(t *testing.T) {
	policy := config.DefaultBotPolicy()
	policy.BypassToken = "let-me-in"
	app, recorder := newGuardApp(t, policy)

	req := botRequest("/menu", gptbotUA)
	req.Header.Set(config.DefaultBypassHeader, "let-me-in")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.ReasonBypass, recorder.last(t).Decision.Reason)

	req = botRequest("/menu", gptbotUA)
	req.Header.Set(config.DefaultBypassHeader, "wrong")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestBotGuard_BypassCookie(t *testing.T) {
	policy := config.DefaultBotPolicy()
	policy.BypassToken = "let-me-in"
	app, _ := newGuardApp(t, policy)

	req := botRequest("/menu", gptbotUA)
	req.AddCookie(&http.Cookie{Name: config.DefaultBypassCookie, Value: "let-me-in"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestBotGuard_KillSwitchSkipsClassification(t *testing.T) {
	policy := config.DefaultBotPolicy()
	policy.Enabled = false
	app, recorder := newGuardApp(t, policy)

	resp, err := app.Test(botRequest("/menu", gptbotUA))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "|", body(t, resp))
	assert.Empty(t, recorder.records)
}

func TestBotGuard_BlockMode(t *testing.T) {
	policy := config.DefaultBotPolicy()
	policy.Mode = string(domain.ModeBlock)
	app, _ := newGuardApp(t, policy)

	resp, err := app.Test(botRequest("/menu", "python-requests/2.31"))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, string(domain.ActionBlock), resp.Header.Get(common.DecisionHeader))
}

func TestBotGuard_MonitorModeRecordsIntendedAction(t *testing.T) {
	policy := config.DefaultBotPolicy()
	policy.Mode = string(domain.ModeMonitor)
	app, recorder := newGuardApp(t, policy)

	resp, err := app.Test(botRequest("/menu", gptbotUA))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	record := recorder.last(t)
	assert.Equal(t, domain.ActionAllow, record.Decision.Action)
	assert.Equal(t, domain.ActionRedirectPaywall, record.Decision.Intended)
}

func TestBotGuard_BlockedCIDR(t *testing.T) {
	policy := config.DefaultBotPolicy()
	policy.BlockedCIDRs = []string{"203.0.113.0/24"}
	app, recorder := newGuardApp(t, policy)

	req := browserRequest("/menu")
	req.Header.Set("CF-Connecting-IP", "203.0.113.50")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	record := recorder.last(t)
	assert.Equal(t, "203.0.113.50", record.Identity.IP)
	assert.Equal(t, domain.ReasonIPBlocked, record.Decision.Reason)
}
