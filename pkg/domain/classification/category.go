package classification

type Category string

const (
	CategoryHuman          Category = "human"
	CategorySearchEngine   Category = "search_engine"
	CategoryCrawler        Category = "crawler"
	CategoryAutomationTool Category = "automation_tool"
	CategoryAIAssistant    Category = "ai_assistant"
	CategoryScrapingTool   Category = "scraping_tool"
	CategoryGenericBot     Category = "generic_bot"
	CategoryUnknown        Category = "unknown"
)

// Base confidence contributed by a user-agent match in each category.
// Search engines are forced to MaxConfidence by the aggregator regardless
// of this value.
var categoryWeights = map[Category]int{
	CategorySearchEngine:   MaxConfidence,
	CategoryCrawler:        80,
	CategoryAIAssistant:    85,
	CategoryScrapingTool:   85,
	CategoryAutomationTool: 50,
	CategoryUnknown:        50,
	CategoryGenericBot:     40,
}

const MaxConfidence = 100

func (c Category) String() string {
	return string(c)
}

// Weight returns the base confidence for a user-agent match in c, or 0 for
// categories that carry no user-agent evidence.
func (c Category) Weight() int {
	return categoryWeights[c]
}

func (c Category) IsKnown() bool {
	switch c {
	case CategoryHuman, CategorySearchEngine, CategoryCrawler, CategoryAutomationTool,
		CategoryAIAssistant, CategoryScrapingTool, CategoryGenericBot, CategoryUnknown:
		return true
	}
	return false
}

// IsAuthorized reports whether c identifies a legitimate indexer.
func (c Category) IsAuthorized() bool {
	return c == CategorySearchEngine
}

func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c.IsKnown()
}
