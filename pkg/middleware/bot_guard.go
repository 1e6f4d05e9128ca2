package middleware

import (
	"strconv"
	"time"

	"github.com/NeuralTrust/BotGate/pkg/common"
	"github.com/NeuralTrust/BotGate/pkg/config"
	"github.com/NeuralTrust/BotGate/pkg/detection"
	"github.com/NeuralTrust/BotGate/pkg/domain/audit"
	"github.com/NeuralTrust/BotGate/pkg/domain/classification"
	domain "github.com/NeuralTrust/BotGate/pkg/domain/policy"
	"github.com/NeuralTrust/BotGate/pkg/infra/auditlogs"
	"github.com/NeuralTrust/BotGate/pkg/infra/fingerprint"
	"github.com/NeuralTrust/BotGate/pkg/infra/prometheus"
	"github.com/NeuralTrust/BotGate/pkg/policy"
	"github.com/NeuralTrust/BotGate/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BotGuardDeps struct {
	Logger     *logrus.Logger
	Classifier *detection.Classifier
	Policies   *config.PolicyStore
	Resolver   fingerprint.Resolver
	Audit      auditlogs.Service
}

type botGuardMiddleware struct {
	logger     *logrus.Logger
	classifier *detection.Classifier
	policies   *config.PolicyStore
	resolver   fingerprint.Resolver
	audit      auditlogs.Service
}

// NewBotGuardMiddleware classifies each request, applies the active bot
// policy and emits one audit record per decision. Allowed requests continue
// down the chain annotated with the verdict.
func NewBotGuardMiddleware(deps BotGuardDeps) Middleware {
	return &botGuardMiddleware{
		logger:     deps.Logger,
		classifier: deps.Classifier,
		policies:   deps.Policies,
		resolver:   deps.Resolver,
		audit:      deps.Audit,
	}
}

func (m *botGuardMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cfg := m.policies.Get()
		if cfg == nil || !cfg.Enabled {
			return c.Next()
		}

		identity, ok := c.Locals(common.IdentityContextKey).(fingerprint.Identity)
		if !ok {
			identity = m.resolver.MakeIdentity(c)
		}
		arrivedAt, ok := c.Locals(common.LatencyContextKey).(time.Time)
		if !ok {
			arrivedAt = time.Now()
		}

		start := time.Now()
		signals := detection.SignalsFromFiber(c, identity, arrivedAt)
		verdict := m.classifier.Classify(signals, cfg.ConfidenceThreshold)
		decision := policy.Evaluate(policy.Request{
			Verdict:   verdict,
			Path:      signals.Path,
			RawQuery:  string(c.Request().URI().QueryString()),
			ClientIP:  identity.IP,
			HasBypass: m.hasBypass(c, cfg),
		}, cfg)
		m.observe(start, verdict, decision)

		c.Locals(common.VerdictContextKey, verdict)
		c.Locals(common.DecisionContextKey, decision)
		m.emit(c, signals, verdict, decision)

		if decision.Action != domain.ActionAllow || decision.Intended != "" {
			m.logger.WithFields(logrus.Fields{
				"ip":         identity.IP,
				"path":       signals.Path,
				"category":   verdict.Category,
				"confidence": verdict.Confidence,
				"action":     decision.Action,
				"intended":   decision.Intended,
				"reason":     decision.Reason,
			}).Info("bot policy decision")
		}

		switch decision.Action {
		case domain.ActionRedirectPaywall:
			c.Set(common.DecisionHeader, string(decision.Action))
			return c.Redirect(decision.RedirectTarget, fiber.StatusFound)
		case domain.ActionBlock:
			c.Set(common.DecisionHeader, string(decision.Action))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied",
			})
		}

		annotateRequest(c, identity, verdict)
		return c.Next()
	}
}

func (m *botGuardMiddleware) hasBypass(c *fiber.Ctx, cfg *config.BotPolicyConfig) bool {
	if cfg.BypassToken == "" {
		return false
	}
	var cookie, header string
	if cfg.BypassCookie != "" {
		cookie = c.Cookies(cfg.BypassCookie)
	}
	if cfg.BypassHeader != "" {
		header = c.Get(cfg.BypassHeader)
	}
	return policy.HasValidBypass(cfg, cookie, header)
}

func (m *botGuardMiddleware) observe(start time.Time, v classification.Verdict, d domain.Decision) {
	if prometheus.Config.EnableLatency {
		prometheus.ClassificationLatency.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}
	prometheus.DecisionsTotal.WithLabelValues(string(d.Action), v.Category.String()).Inc()
	if behavior := m.classifier.Behavior(); behavior != nil {
		prometheus.TimingWindows.Set(float64(behavior.Windows()))
	}
}

func (m *botGuardMiddleware) emit(c *fiber.Ctx, s detection.RequestSignals, v classification.Verdict, d domain.Decision) {
	if m.audit == nil {
		return
	}
	traceID, _ := c.Locals(common.TraceIdKey).(string)
	m.audit.Emit(&audit.Record{
		ID:      uuid.New().String(),
		TraceID: traceID,
		Identity: audit.Identity{
			IP:            s.Identity.IP,
			UserAgentHash: s.Identity.UserAgentHash,
		},
		UserAgent: s.UserAgent,
		UAInfo:    utils.ParseUserAgent(s.UserAgent),
		Method:    s.Method,
		Path:      s.Path,
		Verdict:   v,
		Decision:  d,
		Timestamp: s.ArrivedAt.UTC(),
	})
}

// annotateRequest overwrites any client supplied X-BotGate headers so the
// origin can trust them.
func annotateRequest(c *fiber.Ctx, identity fingerprint.Identity, v classification.Verdict) {
	h := &c.Request().Header
	h.Set(common.CategoryHeader, v.Category.String())
	h.Set(common.ConfidenceHeader, strconv.Itoa(v.Confidence))
	h.Set(common.IsBotHeader, strconv.FormatBool(v.IsBot))
	h.Set(common.ClientIPHeader, identity.IP)
}
