package detection

import (
	"strings"

	"github.com/NeuralTrust/BotGate/pkg/domain/classification"
)

type patternTable struct {
	category classification.Category
	label    string
	patterns []string
}

// Tables are evaluated in order; the first table with a substring hit wins.
// Patterns are lower-case.
var patternTables = []patternTable{
	{
		category: classification.CategorySearchEngine,
		label:    "authorized search engine",
		patterns: []string{
			"googlebot", "google-inspectiontool", "adsbot-google", "mediapartners-google",
			"bingbot", "bingpreview", "msnbot", "slurp", "duckduckbot", "baiduspider",
			"yandexbot", "yandex.com/bots", "applebot/", "seznambot", "naverbot", "yeti/",
		},
	},
	{
		category: classification.CategoryCrawler,
		label:    "known crawler",
		patterns: []string{
			"ahrefsbot", "semrushbot", "mj12bot", "dotbot", "blexbot", "dataforseobot",
			"petalbot", "seekport", "rogerbot", "screaming frog", "serpstatbot",
			"megaindex", "barkrowler", "siteauditbot", "linkdexbot", "majestic",
		},
	},
	{
		category: classification.CategoryAIAssistant,
		label:    "ai assistant",
		patterns: []string{
			"gptbot", "chatgpt-user", "oai-searchbot", "claudebot", "claude-web",
			"claude-user", "claude-searchbot", "anthropic-ai", "perplexitybot",
			"perplexity-user", "ccbot", "bytespider", "cohere-ai", "cohere-training-data-crawler",
			"meta-externalagent", "meta-externalfetcher", "youbot", "ai2bot", "amazonbot",
			"mistralai-user", "duckassistbot", "img2dataset", "omgilibot", "timpibot",
			"iaskspider", "kangaroo bot", "webzio-extended", "google-cloudvertexbot",
		},
	},
	{
		category: classification.CategoryScrapingTool,
		label:    "scraping service",
		patterns: []string{
			"scrapingbee", "scraperapi", "brightdata", "bright data", "zyte", "apify",
			"oxylabs", "crawlbase", "proxycrawl", "scrapfly", "diffbot", "webscraper.io",
			"octoparse", "parsehub", "import.io",
		},
	},
	{
		category: classification.CategoryAutomationTool,
		label:    "automation tool",
		patterns: []string{
			"headlesschrome", "phantomjs", "selenium", "webdriver", "puppeteer",
			"playwright", "slimerjs", "nightmare", "htmlunit", "scrapy",
			"python-requests", "python-urllib", "aiohttp", "httpx", "curl/", "wget/",
			"go-http-client", "okhttp", "java/", "apache-httpclient", "node-fetch",
			"axios/", "undici", "libwww-perl", "httpie",
		},
	},
	{
		category: classification.CategoryGenericBot,
		label:    "generic bot pattern",
		patterns: []string{"bot", "crawl", "spider", "scrape", "scraping", "fetcher", "harvest"},
	},
}

// PatternMatch is the Pattern Matcher result.
type PatternMatch struct {
	Category   classification.Category
	Confidence int
	Pattern    string
	Reason     string
}

func (m PatternMatch) Matched() bool {
	return m.Category != ""
}

func (m PatternMatch) Signal() classification.Signal {
	return classification.Signal{Reason: m.Reason, Confidence: m.Confidence}
}

// MatchUserAgent returns the highest-priority category whose table contains
// a substring of ua. An empty user-agent is a medium bot signal since every
// browser sends one.
func MatchUserAgent(ua string) PatternMatch {
	lower := strings.ToLower(strings.TrimSpace(ua))
	if lower == "" {
		return PatternMatch{
			Category:   classification.CategoryUnknown,
			Confidence: classification.CategoryUnknown.Weight(),
			Reason:     "missing user-agent",
		}
	}
	for _, table := range patternTables {
		for _, pattern := range table.patterns {
			if strings.Contains(lower, pattern) {
				return PatternMatch{
					Category:   table.category,
					Confidence: table.category.Weight(),
					Pattern:    pattern,
					Reason:     table.label + ": " + pattern,
				}
			}
		}
	}
	return PatternMatch{}
}
