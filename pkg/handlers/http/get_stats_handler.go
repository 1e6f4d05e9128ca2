package http

import (
	infraCache "github.com/NeuralTrust/BotGate/pkg/infra/cache"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type getStatsHandler struct {
	logger *logrus.Logger
	stats  *infraCache.DecisionStats
}

func NewGetStatsHandler(logger *logrus.Logger, stats *infraCache.DecisionStats) Handler {
	return &getStatsHandler{
		logger: logger,
		stats:  stats,
	}
}

// Handle serves the decision counters of ?day=YYYY-MM-DD (UTC, default today).
func (h *getStatsHandler) Handle(c *fiber.Ctx) error {
	if h.stats == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "decision stats are not configured"})
	}
	day, err := infraCache.ParseDay(c.Query("day"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "day must use the YYYY-MM-DD format"})
	}
	counters, err := h.stats.Counters(c.Context(), day)
	if err != nil {
		h.logger.WithError(err).Error("failed to read decision stats")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read decision stats"})
	}
	return c.Status(fiber.StatusOK).JSON(counters)
}
