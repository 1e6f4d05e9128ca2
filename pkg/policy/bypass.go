package policy

import (
	"crypto/subtle"

	"github.com/NeuralTrust/BotGate/pkg/config"
)

// HasValidBypass compares the presented cookie and header values against the
// configured token in constant time. An unset token never matches.
func HasValidBypass(cfg *config.BotPolicyConfig, cookieValue, headerValue string) bool {
	if cfg == nil || cfg.BypassToken == "" {
		return false
	}
	token := []byte(cfg.BypassToken)
	if cfg.BypassCookie != "" && cookieValue != "" &&
		subtle.ConstantTimeCompare([]byte(cookieValue), token) == 1 {
		return true
	}
	return cfg.BypassHeader != "" && headerValue != "" &&
		subtle.ConstantTimeCompare([]byte(headerValue), token) == 1
}
