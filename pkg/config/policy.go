package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/NeuralTrust/BotGate/pkg/domain/policy"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	DefaultConfidenceThreshold = 70
	DefaultPaywallPath         = "/paywall"
	DefaultBypassCookie        = "bot_bypass"
	DefaultBypassHeader        = "X-Bot-Bypass"

	RedactedSecret = "********"
)

var (
	ErrInvalidThreshold = errors.New("confidence_threshold must be between 0 and 100")
	ErrInvalidPath      = errors.New("invalid path")
	ErrInvalidCIDR      = errors.New("invalid cidr")
)

// BotPolicyConfig is the single validated policy consumed by the access
// policy engine. Instances are treated as immutable once validated.
type BotPolicyConfig struct {
	Enabled                       bool     `mapstructure:"enabled" json:"enabled"`
	ConfidenceThreshold           int      `mapstructure:"confidence_threshold" json:"confidence_threshold"`
	AllowedPathsForAuthorizedBots []string `mapstructure:"allowed_paths_for_authorized_bots" json:"allowed_paths_for_authorized_bots"`
	PaywallPath                   string   `mapstructure:"paywall_path" json:"paywall_path"`
	PublicPaths                   []string `mapstructure:"public_paths" json:"public_paths"`
	Mode                          string   `mapstructure:"mode" json:"mode"`
	BypassToken                   string   `mapstructure:"bypass_token" json:"bypass_token,omitempty"`
	BypassCookie                  string   `mapstructure:"bypass_cookie" json:"bypass_cookie"`
	BypassHeader                  string   `mapstructure:"bypass_header" json:"bypass_header"`
	AllowedCIDRs                  []string `mapstructure:"allowed_cidrs" json:"allowed_cidrs"`
	BlockedCIDRs                  []string `mapstructure:"blocked_cidrs" json:"blocked_cidrs"`

	mode        policy.Mode
	allowedNets []netip.Prefix
	blockedNets []netip.Prefix
}

func DefaultBotPolicy() BotPolicyConfig {
	return BotPolicyConfig{
		Enabled:             true,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		AllowedPathsForAuthorizedBots: []string{
			"/", "/robots.txt", "/sitemap.xml", "/menu", "/about", "/blog", "/blog/*",
		},
		PaywallPath: DefaultPaywallPath,
		PublicPaths: []string{
			"/", "/robots.txt", "/sitemap.xml", "/manifest.json", "/site.webmanifest", "/favicon.ico", "/llms.txt",
		},
		Mode:         string(policy.ModePaywall),
		BypassCookie: DefaultBypassCookie,
		BypassHeader: DefaultBypassHeader,
	}
}

func setPolicyDefaults(v *viper.Viper, prefix string) {
	d := DefaultBotPolicy()
	v.SetDefault(prefix+".enabled", d.Enabled)
	v.SetDefault(prefix+".confidence_threshold", d.ConfidenceThreshold)
	v.SetDefault(prefix+".allowed_paths_for_authorized_bots", d.AllowedPathsForAuthorizedBots)
	v.SetDefault(prefix+".paywall_path", d.PaywallPath)
	v.SetDefault(prefix+".public_paths", d.PublicPaths)
	v.SetDefault(prefix+".mode", d.Mode)
	v.SetDefault(prefix+".bypass_cookie", d.BypassCookie)
	v.SetDefault(prefix+".bypass_header", d.BypassHeader)
}

// DecodeBotPolicy overlays input onto the default policy and validates the
// result. Unknown keys are rejected.
func DecodeBotPolicy(input map[string]interface{}) (*BotPolicyConfig, error) {
	cfg := DefaultBotPolicy()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create policy decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return nil, fmt.Errorf("failed to decode policy: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes paths, parses CIDRs and checks every field. It must
// succeed before the policy is handed to the engine.
func (c *BotPolicyConfig) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 100 {
		return fmt.Errorf("%w, got %d", ErrInvalidThreshold, c.ConfidenceThreshold)
	}

	mode, err := policy.ParseMode(c.Mode)
	if err != nil {
		return err
	}
	c.mode = mode
	c.Mode = string(mode)

	if c.PaywallPath == "" {
		c.PaywallPath = DefaultPaywallPath
	}
	if strings.ContainsAny(c.PaywallPath, "?#*") || !strings.HasPrefix(c.PaywallPath, "/") {
		return fmt.Errorf("%w: paywall_path %q", ErrInvalidPath, c.PaywallPath)
	}
	c.PaywallPath = NormalizePath(c.PaywallPath)

	if c.AllowedPathsForAuthorizedBots, err = normalizePatterns("allowed_paths_for_authorized_bots", c.AllowedPathsForAuthorizedBots); err != nil {
		return err
	}
	if c.PublicPaths, err = normalizePatterns("public_paths", c.PublicPaths); err != nil {
		return err
	}

	if c.BypassToken != "" && c.BypassCookie == "" && c.BypassHeader == "" {
		return errors.New("bypass_token requires bypass_cookie or bypass_header")
	}

	if c.allowedNets, err = parseNets(c.AllowedCIDRs); err != nil {
		return err
	}
	if c.blockedNets, err = parseNets(c.BlockedCIDRs); err != nil {
		return err
	}
	return nil
}

func (c *BotPolicyConfig) EnforcementMode() policy.Mode {
	if c.mode == "" {
		return policy.ModePaywall
	}
	return c.mode
}

func (c *BotPolicyConfig) IPAllowed(ip string) bool {
	return containsIP(c.allowedNets, ip)
}

func (c *BotPolicyConfig) IPBlocked(ip string) bool {
	return containsIP(c.blockedNets, ip)
}

// Redacted returns a copy safe to expose through the admin API.
func (c *BotPolicyConfig) Redacted() BotPolicyConfig {
	out := *c
	if out.BypassToken != "" {
		out.BypassToken = RedactedSecret
	}
	return out
}

// NormalizePath drops trailing slashes; the empty path becomes the root.
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

func normalizePatterns(field string, patterns []string) ([]string, error) {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("%w: %s entry %q must start with /", ErrInvalidPath, field, p)
		}
		if i := strings.Index(p, "*"); i >= 0 && i != len(p)-1 {
			return nil, fmt.Errorf("%w: %s entry %q may only end with *", ErrInvalidPath, field, p)
		}
		if strings.HasSuffix(p, "*") {
			out = append(out, p)
			continue
		}
		out = append(out, NormalizePath(p))
	}
	return out, nil
}

func parseNets(entries []string) ([]netip.Prefix, error) {
	nets := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if strings.Contains(e, "/") {
			prefix, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("%w %q: %v", ErrInvalidCIDR, e, err)
			}
			nets = append(nets, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidCIDR, e, err)
		}
		nets = append(nets, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return nets, nil
}

func containsIP(nets []netip.Prefix, ip string) bool {
	if len(nets) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, n := range nets {
		if n.Contains(addr) {
			return true
		}
	}
	return false
}
