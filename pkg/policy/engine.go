package policy

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/NeuralTrust/BotGate/pkg/config"
	"github.com/NeuralTrust/BotGate/pkg/domain/classification"
	domain "github.com/NeuralTrust/BotGate/pkg/domain/policy"
)

// Request is everything the engine needs besides the policy itself.
type Request struct {
	Verdict   classification.Verdict
	Path      string
	RawQuery  string
	ClientIP  string
	HasBypass bool
}

// Evaluate maps a verdict to an access decision. It never fails: an
// unrecognized category is handled as an unauthorized bot when IsBot is set.
func Evaluate(req Request, cfg *config.BotPolicyConfig) domain.Decision {
	if cfg == nil || !cfg.Enabled {
		return domain.Allow(domain.ReasonKillSwitch)
	}

	path := config.NormalizePath(req.Path)
	if IsPaywallPath(path, cfg.PaywallPath) {
		return domain.Allow(domain.ReasonPaywallPath)
	}
	if req.HasBypass {
		return domain.Allow(domain.ReasonBypass)
	}
	if cfg.IPAllowed(req.ClientIP) {
		return domain.Allow(domain.ReasonIPAllowed)
	}

	return enforce(classify(req, path, cfg), cfg.EnforcementMode())
}

func classify(req Request, path string, cfg *config.BotPolicyConfig) domain.Decision {
	if cfg.IPBlocked(req.ClientIP) {
		return domain.Decision{Action: domain.ActionBlock, Reason: domain.ReasonIPBlocked}
	}

	v := req.Verdict
	if !v.IsBot {
		return domain.Allow(domain.ReasonHuman)
	}

	switch {
	case v.Category == classification.CategoryAIAssistant:
		if MatchPath(cfg.PublicPaths, path) {
			return domain.Allow(domain.ReasonAIPublicPath)
		}
		return redirect(req, cfg, domain.ReasonAIAssistant)
	case !v.Authorized || !v.Category.IsAuthorized():
		return redirect(req, cfg, domain.ReasonUnauthorizedBot)
	case MatchPath(cfg.AllowedPathsForAuthorizedBots, path):
		return domain.Allow(domain.ReasonAuthorizedAllowedPath)
	default:
		return redirect(req, cfg, domain.ReasonAuthorizedRestrictedPath)
	}
}

func enforce(d domain.Decision, mode domain.Mode) domain.Decision {
	if d.Action == domain.ActionAllow {
		return d
	}
	switch mode {
	case domain.ModeMonitor:
		return domain.Decision{
			Action:         domain.ActionAllow,
			Reason:         d.Reason,
			Intended:       d.Action,
			RedirectTarget: d.RedirectTarget,
		}
	case domain.ModeBlock:
		return domain.Decision{Action: domain.ActionBlock, Reason: d.Reason}
	default:
		return d
	}
}

func redirect(req Request, cfg *config.BotPolicyConfig, reason string) domain.Decision {
	return domain.Decision{
		Action:         domain.ActionRedirectPaywall,
		RedirectTarget: RedirectTarget(cfg.PaywallPath, req.Path, req.RawQuery, req.Verdict),
		Reason:         reason,
	}
}

// RedirectTarget builds the paywall URL carrying the original location as
// returnUrl plus the category and confidence of the verdict.
func RedirectTarget(paywallPath, path, rawQuery string, v classification.Verdict) string {
	returnURL := path
	if returnURL == "" {
		returnURL = "/"
	}
	if rawQuery != "" {
		returnURL += "?" + rawQuery
	}
	q := url.Values{}
	q.Set("category", v.Category.String())
	q.Set("confidence", strconv.Itoa(v.Confidence))
	q.Set("returnUrl", returnURL)
	return paywallPath + "?" + q.Encode()
}

// IsPaywallPath reports whether path is the paywall or anything beneath it.
func IsPaywallPath(path, paywallPath string) bool {
	path = config.NormalizePath(path)
	return path == paywallPath || strings.HasPrefix(path, paywallPath+"/")
}

// MatchPath checks path against exact entries and prefix entries ending in *.
func MatchPath(patterns []string, path string) bool {
	path = config.NormalizePath(path)
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return true
			}
			continue
		}
		if p == path {
			return true
		}
	}
	return false
}
