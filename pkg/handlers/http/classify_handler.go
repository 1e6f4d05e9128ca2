package http

import (
	"time"

	"github.com/NeuralTrust/BotGate/pkg/config"
	"github.com/NeuralTrust/BotGate/pkg/detection"
	"github.com/NeuralTrust/BotGate/pkg/domain/classification"
	domain "github.com/NeuralTrust/BotGate/pkg/domain/policy"
	"github.com/NeuralTrust/BotGate/pkg/handlers/http/request"
	"github.com/NeuralTrust/BotGate/pkg/infra/fingerprint"
	"github.com/NeuralTrust/BotGate/pkg/policy"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type classifyHandler struct {
	logger     *logrus.Logger
	classifier *detection.Classifier
	store      *config.PolicyStore
}

type ClassifyResponse struct {
	Verdict  classification.Verdict `json:"verdict"`
	Decision domain.Decision        `json:"decision"`
}

func NewClassifyHandler(
	logger *logrus.Logger,
	classifier *detection.Classifier,
	store *config.PolicyStore,
) Handler {
	return &classifyHandler{
		logger:     logger,
		classifier: classifier,
		store:      store,
	}
}

func (h *classifyHandler) Handle(c *fiber.Ctx) error {
	var req request.ClassifyRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Debug("failed to bind classify request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	cfg := h.store.Get()
	if cfg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "no policy loaded"})
	}

	ip := req.IP
	if ip == "" {
		ip = fingerprint.UnknownIP
	}
	signals := detection.RequestSignals{
		Identity:  fingerprint.New(ip, *req.UserAgent),
		UserAgent: *req.UserAgent,
		Method:    req.Method,
		Path:      req.Path,
		Headers:   req.LowerHeaders(),
		ArrivedAt: time.Now(),
	}
	verdict := h.classifier.DryRun(signals, cfg.ConfidenceThreshold)
	decision := policy.Evaluate(policy.Request{
		Verdict:   verdict,
		Path:      req.Path,
		RawQuery:  req.RawQuery,
		ClientIP:  ip,
		HasBypass: req.Bypass,
	}, cfg)

	return c.Status(fiber.StatusOK).JSON(ClassifyResponse{
		Verdict:  verdict,
		Decision: decision,
	})
}
