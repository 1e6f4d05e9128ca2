package http

import (
	"github.com/NeuralTrust/BotGate/pkg/config"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type getPolicyHandler struct {
	logger *logrus.Logger
	store  *config.PolicyStore
}

func NewGetPolicyHandler(logger *logrus.Logger, store *config.PolicyStore) Handler {
	return &getPolicyHandler{
		logger: logger,
		store:  store,
	}
}

func (h *getPolicyHandler) Handle(c *fiber.Ctx) error {
	current := h.store.Get()
	if current == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "no policy loaded"})
	}
	return c.Status(fiber.StatusOK).JSON(current.Redacted())
}
