package http

import (
	"github.com/NeuralTrust/BotGate/pkg/common"
	"github.com/NeuralTrust/BotGate/pkg/infra/fingerprint"
	"github.com/NeuralTrust/BotGate/pkg/infra/httpx"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type forwardedHandler struct {
	logger    *logrus.Logger
	forwarder httpx.Forwarder
}

// NewForwardedHandler relays requests that passed the bot guard to the
// origin. A nil forwarder answers 503 for every request.
func NewForwardedHandler(logger *logrus.Logger, forwarder httpx.Forwarder) Handler {
	return &forwardedHandler{
		logger:    logger,
		forwarder: forwarder,
	}
}

func (h *forwardedHandler) Handle(c *fiber.Ctx) error {
	if h.forwarder == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "no upstream configured"})
	}

	clientIP := ""
	if identity, ok := c.Locals(common.IdentityContextKey).(fingerprint.Identity); ok && identity.IP != fingerprint.UnknownIP {
		clientIP = identity.IP
	}
	traceID, _ := c.Locals(common.TraceIdKey).(string)

	if err := h.forwarder.Forward(c.Request(), c.Response(), clientIP); err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"path":     c.Path(),
			"trace_id": traceID,
		}).Error("failed to forward request")
		c.Response().Reset()
		if traceID != "" {
			c.Set(common.TraceIDHeader, traceID)
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream unavailable"})
	}

	if traceID != "" {
		c.Set(common.TraceIDHeader, traceID)
	}
	return nil
}
