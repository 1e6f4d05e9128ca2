package detection

import (
	"strings"
	"time"

	"github.com/NeuralTrust/BotGate/pkg/infra/fingerprint"
	"github.com/gofiber/fiber/v2"
)

// RequestSignals is the per-request input of the classification pipeline.
// Header names are lower-cased.
type RequestSignals struct {
	Identity  fingerprint.Identity
	UserAgent string
	Method    string
	Path      string
	Headers   map[string]string
	ArrivedAt time.Time
}

func (s RequestSignals) Header(name string) string {
	return s.Headers[strings.ToLower(name)]
}

func (s RequestSignals) HasHeader(name string) bool {
	return strings.TrimSpace(s.Header(name)) != ""
}

// SignalsFromFiber captures the request fields the extractors need. Values
// are copied since fiber reuses request buffers once the handler returns.
func SignalsFromFiber(c *fiber.Ctx, identity fingerprint.Identity, arrivedAt time.Time) RequestSignals {
	headers := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := strings.ToLower(string(key))
		if existing, ok := headers[k]; ok {
			headers[k] = existing + ", " + string(value)
			return
		}
		headers[k] = string(value)
	})
	return RequestSignals{
		Identity:  identity,
		UserAgent: strings.Clone(c.Get(fiber.HeaderUserAgent)),
		Method:    strings.Clone(c.Method()),
		Path:      strings.Clone(c.Path()),
		Headers:   headers,
		ArrivedAt: arrivedAt,
	}
}

// NormalizeHeaders lower-cases header names of a multi-valued header map.
func NormalizeHeaders(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}
