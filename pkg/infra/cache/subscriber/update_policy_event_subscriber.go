package subscriber

import (
	"context"
	"fmt"

	"github.com/NeuralTrust/BotGate/pkg/config"
	infraCache "github.com/NeuralTrust/BotGate/pkg/infra/cache"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache/event"
	"github.com/sirupsen/logrus"
)

type UpdatePolicyEventSubscriber struct {
	logger *logrus.Logger
	store  *config.PolicyStore
}

func NewUpdatePolicyEventSubscriber(
	logger *logrus.Logger,
	store *config.PolicyStore,
) infraCache.EventSubscriber[event.UpdatePolicyEvent] {
	return &UpdatePolicyEventSubscriber{
		logger: logger,
		store:  store,
	}
}

func (s UpdatePolicyEventSubscriber) OnEvent(_ context.Context, evt event.UpdatePolicyEvent) error {
	if err := s.store.Replace(evt.Policy); err != nil {
		return fmt.Errorf("rejected policy update: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"enabled":   evt.Policy.Enabled,
		"threshold": evt.Policy.ConfidenceThreshold,
		"mode":      evt.Policy.Mode,
	}).Info("bot policy updated from admin event")
	return nil
}
