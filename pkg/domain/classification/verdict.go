package classification

// Signal is one piece of evidence produced by an extractor.
type Signal struct {
	Reason     string `json:"reason"`
	Confidence int    `json:"confidence"`
}

// Verdict is the outcome of classifying a single request.
type Verdict struct {
	IsBot      bool     `json:"is_bot"`
	Confidence int      `json:"confidence"`
	Category   Category `json:"category"`
	Authorized bool     `json:"authorized"`
	Reasons    []string `json:"reasons"`
}

func HumanVerdict() Verdict {
	return Verdict{Category: CategoryHuman, Reasons: []string{}}
}
