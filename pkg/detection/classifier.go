package detection

import (
	"github.com/NeuralTrust/BotGate/pkg/domain/classification"
	"github.com/sirupsen/logrus"
)

// Classifier runs the extractors and the aggregator for a request.
type Classifier struct {
	logger   *logrus.Logger
	behavior *BehaviorAnalyzer
}

func NewClassifier(logger *logrus.Logger, behavior *BehaviorAnalyzer) *Classifier {
	return &Classifier{
		logger:   logger,
		behavior: behavior,
	}
}

// Classify produces a verdict and records the request in the behavioral
// history of its identity.
func (c *Classifier) Classify(s RequestSignals, threshold int) classification.Verdict {
	evidence := Evidence{
		Pattern: MatchUserAgent(s.UserAgent),
		Headers: InspectHeaders(s),
	}
	if c.behavior != nil {
		evidence.Timing = c.behavior.Analyze(s.Identity, s.Path, s.ArrivedAt)
	}
	verdict := Aggregate(evidence, threshold)

	c.logger.WithFields(logrus.Fields{
		"ip":         s.Identity.IP,
		"path":       s.Path,
		"category":   verdict.Category,
		"confidence": verdict.Confidence,
		"is_bot":     verdict.IsBot,
	}).Debug("request classified")
	return verdict
}

// DryRun classifies without reading or updating behavioral state.
func (c *Classifier) DryRun(s RequestSignals, threshold int) classification.Verdict {
	return Aggregate(Evidence{
		Pattern: MatchUserAgent(s.UserAgent),
		Headers: InspectHeaders(s),
	}, threshold)
}

func (c *Classifier) Behavior() *BehaviorAnalyzer {
	return c.behavior
}
