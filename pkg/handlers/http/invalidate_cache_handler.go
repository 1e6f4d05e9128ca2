package http

import (
	"time"

	"github.com/NeuralTrust/BotGate/pkg/common"
	"github.com/NeuralTrust/BotGate/pkg/detection"
	infraCache "github.com/NeuralTrust/BotGate/pkg/infra/cache"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache/event"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type invalidateCacheHandler struct {
	logger    *logrus.Logger
	behavior  *detection.BehaviorAnalyzer
	stats     *infraCache.DecisionStats
	publisher infraCache.EventPublisher
}

// NewInvalidateCacheHandler clears the behavioral cache of this process and
// broadcasts the reset to the proxies. With ?stats=true the redis decision
// counters are dropped as well.
func NewInvalidateCacheHandler(
	logger *logrus.Logger,
	behavior *detection.BehaviorAnalyzer,
	stats *infraCache.DecisionStats,
	publisher infraCache.EventPublisher,
) Handler {
	return &invalidateCacheHandler{
		logger:    logger,
		behavior:  behavior,
		stats:     stats,
		publisher: publisher,
	}
}

func (h *invalidateCacheHandler) Handle(c *fiber.Ctx) error {
	subject, _ := c.Locals(common.SubjectContextKey).(string)
	h.logger.WithField("subject", subject).Info("invalidating behavioral cache")

	dropped := 0
	if h.behavior != nil {
		dropped = h.behavior.Windows()
		h.behavior.Reset()
	}

	broadcast := false
	if h.publisher != nil {
		err := h.publisher.Publish(c.Context(), event.ResetBehaviorEvent{
			RequestedBy: subject,
			RequestedAt: time.Now().UTC(),
		})
		if err != nil {
			h.logger.WithError(err).Error("failed to broadcast behavioral cache reset")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to invalidate cache"})
		}
		broadcast = true
	}

	resp := fiber.Map{
		"message":         "Cache invalidated successfully",
		"windows_dropped": dropped,
		"broadcast":       broadcast,
	}

	if c.QueryBool("stats") {
		if h.stats == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "decision stats are not configured"})
		}
		removed, err := h.stats.Reset(c.Context())
		if err != nil {
			h.logger.WithError(err).Error("failed to reset decision stats")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset decision stats"})
		}
		resp["stats_keys_removed"] = removed
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}
