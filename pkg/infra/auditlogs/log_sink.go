package auditlogs

import (
	"context"

	"github.com/NeuralTrust/BotGate/pkg/domain/audit"
	"github.com/NeuralTrust/BotGate/pkg/domain/policy"
	"github.com/sirupsen/logrus"
)

const LogSinkName = "log"

// LogSink writes decisions to the structured log. Allowed humans are logged
// at debug so that production logs carry only interesting traffic.
type LogSink struct {
	logger *logrus.Logger
}

func NewLogSink(logger *logrus.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string {
	return LogSinkName
}

func (s *LogSink) Write(_ context.Context, r *audit.Record) error {
	entry := s.logger.WithFields(logrus.Fields{
		"record_id":  r.ID,
		"trace_id":   r.TraceID,
		"ip":         r.Identity.IP,
		"ua_hash":    r.Identity.UserAgentHash,
		"method":     r.Method,
		"path":       r.Path,
		"is_bot":     r.Verdict.IsBot,
		"category":   r.Verdict.Category,
		"confidence": r.Verdict.Confidence,
		"reasons":    r.Verdict.Reasons,
		"action":     r.Decision.Action,
		"reason":     r.Decision.Reason,
	})
	if r.Decision.Intended != "" {
		entry = entry.WithField("intended", r.Decision.Intended)
	}
	if r.Decision.Action == policy.ActionAllow && r.Decision.Intended == "" {
		entry.Debug("bot decision")
		return nil
	}
	entry.Info("bot decision")
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
