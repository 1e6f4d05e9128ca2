package detection

import (
	"strings"

	"github.com/NeuralTrust/BotGate/pkg/domain/classification"
	"github.com/avct/uasurfer"
)

const (
	missingHeaderWeight = 15
	clientHintsWeight   = 25
)

var browserUniversalHeaders = []string{"accept-language", "accept-encoding"}

var clientHintHeaders = []string{"sec-ch-ua", "sec-ch-ua-mobile", "sec-ch-ua-platform"}

// InspectHeaders scores the presence and consistency of browser-typical
// headers. Its maximum contribution stays below the default threshold.
func InspectHeaders(s RequestSignals) []classification.Signal {
	var signals []classification.Signal
	for _, h := range browserUniversalHeaders {
		if !s.HasHeader(h) {
			signals = append(signals, classification.Signal{
				Reason:     "missing " + h + " header",
				Confidence: missingHeaderWeight,
			})
		}
	}

	if strings.EqualFold(strings.TrimSpace(s.Header("sec-fetch-mode")), "navigate") &&
		!hasAnyHeader(s, clientHintHeaders) &&
		sendsClientHints(s.UserAgent) {
		signals = append(signals, classification.Signal{
			Reason:     "navigate fetch mode without client hints",
			Confidence: clientHintsWeight,
		})
	}
	return signals
}

func hasAnyHeader(s RequestSignals, names []string) bool {
	for _, name := range names {
		if s.HasHeader(name) {
			return true
		}
	}
	return false
}

// sendsClientHints reports whether a genuine browser with this user-agent
// would attach client hints to a navigation. Firefox, Safari and every iOS
// browser never do, so the navigate-without-client-hints signal is narrowed
// to Chromium-family user-agents instead of firing on every navigation that
// lacks sec-ch-ua.
func sendsClientHints(userAgent string) bool {
	ua := uasurfer.Parse(userAgent)
	if ua.OS.Name == uasurfer.OSiOS {
		return false
	}
	switch ua.Browser.Name {
	case uasurfer.BrowserFirefox, uasurfer.BrowserSafari:
		return false
	}
	return true
}
