package detection_test

import (
	"testing"

	"github.com/NeuralTrust/BotGate/pkg/detection"
	"github.com/NeuralTrust/BotGate/pkg/domain/classification"
	"github.com/stretchr/testify/assert"
)

const (
	chromeUA    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	firefoxUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0"
	googlebotUA = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
	gptbotUA    = "Mozilla/5.0 (compatible; GPTBot/1.0; +https://openai.com/gptbot)"
)

func TestMatchUserAgent(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		category classification.Category
		pattern  string
	}{
		{"googlebot", googlebotUA, classification.CategorySearchEngine, "googlebot"},
		{"bingbot", "Mozilla/5.0 (compatible; bingbot/2.0; +http://www.bing.com/bingbot.htm)", classification.CategorySearchEngine, "bingbot"},
		{"ahrefs", "Mozilla/5.0 (compatible; AhrefsBot/7.0; +http://ahrefs.com/robot/)", classification.CategoryCrawler, "ahrefsbot"},
		{"gptbot", gptbotUA, classification.CategoryAIAssistant, "gptbot"},
		{"claudebot", "Mozilla/5.0 AppleWebKit/537.36 (KHTML, like Gecko; compatible; ClaudeBot/1.0; +claudebot@anthropic.com)", classification.CategoryAIAssistant, "claudebot"},
		{"scrapingbee", "ScrapingBee/1.0", classification.CategoryScrapingTool, "scrapingbee"},
		{"headless chrome", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) HeadlessChrome/120.0.0.0 Safari/537.36", classification.CategoryAutomationTool, "headlesschrome"},
		{"curl", "curl/8.4.0", classification.CategoryAutomationTool, "curl/"},
		{"python requests", "python-requests/2.31.0", classification.CategoryAutomationTool, "python-requests"},
		{"generic", "MyLittleBot/0.1", classification.CategoryGenericBot, "bot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := detection.MatchUserAgent(tt.ua)
			assert.True(t, m.Matched())
			assert.Equal(t, tt.category, m.Category)
			assert.Equal(t, tt.pattern, m.Pattern)
			assert.Equal(t, tt.category.Weight(), m.Confidence)
			assert.Contains(t, m.Reason, tt.pattern)
		})
	}
}

func TestMatchUserAgent_FirstTableWins(t *testing.T) {
	// Matches both the AI table and the generic "bot" table.
	m := detection.MatchUserAgent("PerplexityBot/1.0")
	assert.Equal(t, classification.CategoryAIAssistant, m.Category)
	assert.Equal(t, 85, m.Confidence, "confidences of several tables must not be summed")
}

func TestMatchUserAgent_Browsers(t *testing.T) {
	for _, ua := range []string{chromeUA, firefoxUA} {
		assert.False(t, detection.MatchUserAgent(ua).Matched(), ua)
	}
}

func TestMatchUserAgent_Missing(t *testing.T) {
	for _, ua := range []string{"", "   "} {
		m := detection.MatchUserAgent(ua)
		assert.Equal(t, classification.CategoryUnknown, m.Category)
		assert.Equal(t, 50, m.Confidence)
		assert.Equal(t, "missing user-agent", m.Reason)
	}
}
