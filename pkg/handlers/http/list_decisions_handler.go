package http

import (
	"github.com/NeuralTrust/BotGate/pkg/domain/audit"
	"github.com/NeuralTrust/BotGate/pkg/domain/classification"
	domain "github.com/NeuralTrust/BotGate/pkg/domain/policy"
	"github.com/NeuralTrust/BotGate/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type listDecisionsHandler struct {
	logger *logrus.Logger
	repo   audit.Repository
}

func NewListDecisionsHandler(logger *logrus.Logger, repo audit.Repository) Handler {
	return &listDecisionsHandler{
		logger: logger,
		repo:   repo,
	}
}

func (h *listDecisionsHandler) Handle(c *fiber.Ctx) error {
	if h.repo == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "decision log is not configured"})
	}

	filter := audit.Filter{
		Category: c.Query("category"),
		Action:   c.Query("action"),
		IP:       c.Query("ip"),
		Limit:    c.QueryInt("limit"),
	}
	if filter.Category != "" {
		if _, ok := classification.ParseCategory(filter.Category); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown category: " + filter.Category})
		}
	}
	switch domain.Action(filter.Action) {
	case "", domain.ActionAllow, domain.ActionRedirectPaywall, domain.ActionBlock:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown action: " + filter.Action})
	}

	records, err := h.repo.List(c.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("failed to list decisions")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list decisions"})
	}
	return c.Status(fiber.StatusOK).JSON(response.ListDecisionsOutput{
		Decisions: records,
		Count:     len(records),
	})
}
