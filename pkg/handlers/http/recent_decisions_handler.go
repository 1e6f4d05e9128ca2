package http

import (
	"github.com/NeuralTrust/BotGate/pkg/handlers/http/response"
	infraCache "github.com/NeuralTrust/BotGate/pkg/infra/cache"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

type recentDecisionsHandler struct {
	logger *logrus.Logger
	stats  *infraCache.DecisionStats
}

func NewRecentDecisionsHandler(logger *logrus.Logger, stats *infraCache.DecisionStats) Handler {
	return &recentDecisionsHandler{
		logger: logger,
		stats:  stats,
	}
}

func (h *recentDecisionsHandler) Handle(c *fiber.Ctx) error {
	if h.stats == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "decision stats are not configured"})
	}
	limit := c.QueryInt("limit", defaultRecentLimit)
	if limit <= 0 || limit > maxRecentLimit {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be between 1 and 200"})
	}

	items, err := h.stats.Recent(c.Context(), int64(limit))
	if err != nil {
		h.logger.WithError(err).Error("failed to read recent decisions")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read recent decisions"})
	}

	decisions := make([]response.RecentDecision, 0, len(items))
	for _, raw := range items {
		d, err := response.ProjectRecentDecision(raw)
		if err != nil {
			h.logger.WithError(err).Warn("skipping malformed recent decision")
			continue
		}
		decisions = append(decisions, d)
	}
	return c.Status(fiber.StatusOK).JSON(response.ListDecisionsOutput{
		Decisions: decisions,
		Count:     len(decisions),
	})
}
