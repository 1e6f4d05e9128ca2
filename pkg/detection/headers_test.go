package detection_test

import (
	"testing"

	"github.com/NeuralTrust/BotGate/pkg/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func browserHeaders() map[string]string {
	return map[string]string{
		"accept":             "text/html,application/xhtml+xml",
		"accept-language":    "en-US,en;q=0.9",
		"accept-encoding":    "gzip, deflate, br",
		"sec-fetch-mode":     "navigate",
		"sec-ch-ua":          `"Chromium";v="124", "Google Chrome";v="124"`,
		"sec-ch-ua-mobile":   "?0",
		"sec-ch-ua-platform": `"Windows"`,
	}
}

func TestInspectHeaders_CompleteBrowser(t *testing.T) {
	s := detection.RequestSignals{UserAgent: chromeUA, Headers: browserHeaders()}
	assert.Empty(t, detection.InspectHeaders(s))
}

func TestInspectHeaders_MissingUniversalHeaders(t *testing.T) {
	s := detection.RequestSignals{UserAgent: chromeUA, Headers: map[string]string{}}
	signals := detection.InspectHeaders(s)

	assert.Len(t, signals, 2)
	assert.Equal(t, "missing accept-language header", signals[0].Reason)
	assert.Equal(t, "missing accept-encoding header", signals[1].Reason)
	assert.Equal(t, 15, signals[0].Confidence)
}

func TestInspectHeaders_NavigateWithoutClientHints(t *testing.T) {
	h := browserHeaders()
	delete(h, "sec-ch-ua")
	delete(h, "sec-ch-ua-mobile")
	delete(h, "sec-ch-ua-platform")

	signals := detection.InspectHeaders(detection.RequestSignals{UserAgent: chromeUA, Headers: h})
	assert.Len(t, signals, 1)
	assert.Equal(t, "navigate fetch mode without client hints", signals[0].Reason)
	assert.Equal(t, 25, signals[0].Confidence)
}

func TestInspectHeaders_BrowsersWithoutClientHintSupport(t *testing.T) {
	h := browserHeaders()
	delete(h, "sec-ch-ua")
	delete(h, "sec-ch-ua-mobile")
	delete(h, "sec-ch-ua-platform")

	for _, ua := range []string{
		firefoxUA,
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/124.0.6367.88 Mobile/15E148 Safari/604.1",
	} {
		assert.Empty(t, detection.InspectHeaders(detection.RequestSignals{UserAgent: ua, Headers: h}), ua)
	}

	signals := detection.InspectHeaders(detection.RequestSignals{UserAgent: chromeUA, Headers: h})
	require.Len(t, signals, 1)
	assert.Equal(t, "navigate fetch mode without client hints", signals[0].Reason)
}

func TestInspectHeaders_NeverCrossesDefaultThreshold(t *testing.T) {
	s := detection.RequestSignals{UserAgent: chromeUA, Headers: map[string]string{"sec-fetch-mode": "navigate"}}
	total := 0
	for _, sig := range detection.InspectHeaders(s) {
		total += sig.Confidence
	}
	assert.Equal(t, 55, total)
	assert.Less(t, total, 70)
}
