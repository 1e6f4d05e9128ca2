package detection

import (
	"github.com/NeuralTrust/BotGate/pkg/domain/classification"
)

// Evidence gathers the outputs of the three extractors for one request.
type Evidence struct {
	Pattern PatternMatch
	Headers []classification.Signal
	Timing  []classification.Signal
}

// Aggregate folds evidence into a Verdict. An authorized search-engine match
// is ground truth: confidence 100 and authorized regardless of other signals.
func Aggregate(e Evidence, threshold int) classification.Verdict {
	reasons := make([]string, 0, 1+len(e.Headers)+len(e.Timing))
	confidence := 0
	if e.Pattern.Matched() {
		reasons = append(reasons, e.Pattern.Reason)
		confidence += e.Pattern.Confidence
	}
	for _, s := range e.Headers {
		reasons = append(reasons, s.Reason)
		confidence += s.Confidence
	}
	for _, s := range e.Timing {
		reasons = append(reasons, s.Reason)
		confidence += s.Confidence
	}

	if e.Pattern.Category.IsAuthorized() {
		return classification.Verdict{
			IsBot:      true,
			Confidence: classification.MaxConfidence,
			Category:   e.Pattern.Category,
			Authorized: true,
			Reasons:    reasons,
		}
	}

	if confidence > classification.MaxConfidence {
		confidence = classification.MaxConfidence
	}
	isBot := confidence >= threshold

	category := e.Pattern.Category
	if !e.Pattern.Matched() {
		category = classification.CategoryHuman
		if isBot {
			category = classification.CategoryUnknown
		}
	}

	return classification.Verdict{
		IsBot:      isBot,
		Confidence: confidence,
		Category:   category,
		Reasons:    reasons,
	}
}
