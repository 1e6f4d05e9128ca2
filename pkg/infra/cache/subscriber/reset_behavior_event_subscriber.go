package subscriber

import (
	"context"

	"github.com/NeuralTrust/BotGate/pkg/detection"
	infraCache "github.com/NeuralTrust/BotGate/pkg/infra/cache"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache/event"
	"github.com/sirupsen/logrus"
)

type ResetBehaviorEventSubscriber struct {
	logger   *logrus.Logger
	behavior *detection.BehaviorAnalyzer
}

func NewResetBehaviorEventSubscriber(
	logger *logrus.Logger,
	behavior *detection.BehaviorAnalyzer,
) infraCache.EventSubscriber[event.ResetBehaviorEvent] {
	return &ResetBehaviorEventSubscriber{
		logger:   logger,
		behavior: behavior,
	}
}

func (s ResetBehaviorEventSubscriber) OnEvent(_ context.Context, evt event.ResetBehaviorEvent) error {
	dropped := s.behavior.Windows()
	s.behavior.Reset()
	s.logger.WithFields(logrus.Fields{
		"requested_by": evt.RequestedBy,
		"dropped":      dropped,
	}).Info("behavioral cache reset")
	return nil
}
