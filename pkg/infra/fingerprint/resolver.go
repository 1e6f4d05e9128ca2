package fingerprint

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultTrustedHeader = "CF-Connecting-IP"
	forwardedForHeader   = "X-Forwarded-For"
)

// HeaderGetter returns the first value of a request header, or "".
type HeaderGetter func(name string) string

type Resolver interface {
	MakeIdentity(ctx *fiber.Ctx) Identity
	ResolveIP(get HeaderGetter, peer string) string
}

type resolver struct {
	trustedHeaders []string
}

// NewResolver builds a resolver that honors trustedHeaders (edge/CDN headers)
// before X-Forwarded-For. An empty list falls back to DefaultTrustedHeader.
func NewResolver(trustedHeaders ...string) Resolver {
	headers := make([]string, 0, len(trustedHeaders))
	for _, h := range trustedHeaders {
		if h = strings.TrimSpace(h); h != "" {
			headers = append(headers, h)
		}
	}
	if len(headers) == 0 {
		headers = []string{DefaultTrustedHeader}
	}
	return &resolver{trustedHeaders: headers}
}

func (r *resolver) MakeIdentity(ctx *fiber.Ctx) Identity {
	peer := ""
	if addr := ctx.Context().RemoteAddr(); addr != nil {
		peer = addr.String()
	}
	ip := r.ResolveIP(func(name string) string { return ctx.Get(name) }, peer)
	return New(ip, ctx.Get(fiber.HeaderUserAgent))
}

// ResolveIP applies the precedence trusted header, leftmost forwarded-for
// entry, socket peer, then UnknownIP. It never fails.
func (r *resolver) ResolveIP(get HeaderGetter, peer string) string {
	if get != nil {
		for _, header := range r.trustedHeaders {
			if ip := validIP(get(header)); ip != "" {
				return ip
			}
		}
		if xff := get(forwardedForHeader); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := validIP(first); ip != "" {
				return ip
			}
		}
	}
	if ip := validIP(stripPort(peer)); ip != "" {
		return ip
	}
	return UnknownIP
}

func validIP(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if parsed := net.ParseIP(value); parsed != nil {
		return parsed.String()
	}
	return ""
}

func stripPort(addr string) string {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}
