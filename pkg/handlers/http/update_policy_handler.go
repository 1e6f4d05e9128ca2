package http

import (
	"encoding/json"

	"github.com/NeuralTrust/BotGate/pkg/common"
	"github.com/NeuralTrust/BotGate/pkg/config"
	infraCache "github.com/NeuralTrust/BotGate/pkg/infra/cache"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache/event"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type updatePolicyHandler struct {
	logger    *logrus.Logger
	store     *config.PolicyStore
	publisher infraCache.EventPublisher
}

// NewUpdatePolicyHandler replaces the whole bot policy. Omitted fields take
// their defaults; a bypass_token equal to the redacted placeholder keeps the
// current token.
func NewUpdatePolicyHandler(
	logger *logrus.Logger,
	store *config.PolicyStore,
	publisher infraCache.EventPublisher,
) Handler {
	return &updatePolicyHandler{
		logger:    logger,
		store:     store,
		publisher: publisher,
	}
}

func (h *updatePolicyHandler) Handle(c *fiber.Ctx) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		h.logger.WithError(err).Debug("failed to bind policy request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	next, err := config.DecodeBotPolicy(raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if next.BypassToken == config.RedactedSecret {
		if current := h.store.Get(); current != nil {
			next.BypassToken = current.BypassToken
		}
	}

	if err := h.store.Replace(*next); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	applied := h.store.Get()

	subject, _ := c.Locals(common.SubjectContextKey).(string)
	h.logger.WithFields(logrus.Fields{
		"subject":   subject,
		"enabled":   applied.Enabled,
		"threshold": applied.ConfidenceThreshold,
		"mode":      applied.Mode,
	}).Info("bot policy replaced")

	if h.publisher != nil {
		if err := h.publisher.Publish(c.Context(), event.UpdatePolicyEvent{Policy: *applied}); err != nil {
			h.logger.WithError(err).Error("failed to broadcast policy update")
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
				"policy":  applied.Redacted(),
				"warning": "policy applied locally but could not be broadcast to proxies",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(applied.Redacted())
}
