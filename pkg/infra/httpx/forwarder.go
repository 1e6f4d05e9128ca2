package httpx

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	DefaultTimeout             = 30 * time.Second
	DefaultMaxConnsPerHost     = 512
	DefaultMaxIdleConnDuration = 10 * time.Second
	DefaultReadBufferSize      = 8192
	DefaultWriteBufferSize     = 8192
	DefaultMaxResponseBodySize = 100 * 1024 * 1024 // 100MB

	forwardedForHeader  = "X-Forwarded-For"
	forwardedHostHeader = "X-Forwarded-Host"
)

var (
	ErrNoUpstream         = errors.New("upstream url is not configured")
	ErrInvalidUpstreamURL = errors.New("invalid upstream url")
)

// hop-by-hop headers are never relayed in either direction
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Forwarder relays an allowed request to the protected origin and writes the
// origin's answer into resp.
type Forwarder interface {
	Forward(req *fasthttp.Request, resp *fasthttp.Response, clientIP string) error
	Target() string
}

type ForwarderOptions struct {
	Timeout             time.Duration
	MaxConnsPerHost     int
	MaxIdleConnDuration time.Duration
	ReadBufferSize      int
	WriteBufferSize     int
	MaxResponseBodySize int
	Dial                fasthttp.DialFunc
}

type ForwarderOption func(*ForwarderOptions)

func WithTimeout(timeout time.Duration) ForwarderOption {
	return func(o *ForwarderOptions) {
		if timeout > 0 {
			o.Timeout = timeout
		}
	}
}

func WithMaxConnsPerHost(max int) ForwarderOption {
	return func(o *ForwarderOptions) {
		if max > 0 {
			o.MaxConnsPerHost = max
		}
	}
}

func WithMaxIdleConnDuration(duration time.Duration) ForwarderOption {
	return func(o *ForwarderOptions) {
		o.MaxIdleConnDuration = duration
	}
}

// WithDial replaces the TCP dialer, mostly useful with in-memory listeners.
func WithDial(dial fasthttp.DialFunc) ForwarderOption {
	return func(o *ForwarderOptions) {
		o.Dial = dial
	}
}

type upstreamForwarder struct {
	client   *fasthttp.Client
	scheme   string
	host     string
	basePath string
	timeout  time.Duration
}

// NewForwarder builds a forwarder for rawURL (scheme, host and an optional
// base path prepended to every forwarded path).
func NewForwarder(rawURL string, opts ...ForwarderOption) (Forwarder, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrNoUpstream
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpstreamURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q must be an absolute http(s) url", ErrInvalidUpstreamURL, rawURL)
	}

	options := &ForwarderOptions{
		Timeout:             DefaultTimeout,
		MaxConnsPerHost:     DefaultMaxConnsPerHost,
		MaxIdleConnDuration: DefaultMaxIdleConnDuration,
		ReadBufferSize:      DefaultReadBufferSize,
		WriteBufferSize:     DefaultWriteBufferSize,
		MaxResponseBodySize: DefaultMaxResponseBodySize,
	}
	for _, opt := range opts {
		opt(options)
	}

	client := &fasthttp.Client{
		ReadTimeout:                   options.Timeout,
		WriteTimeout:                  options.Timeout,
		MaxConnsPerHost:               options.MaxConnsPerHost,
		MaxIdleConnDuration:           options.MaxIdleConnDuration,
		ReadBufferSize:                options.ReadBufferSize,
		WriteBufferSize:               options.WriteBufferSize,
		MaxResponseBodySize:           options.MaxResponseBodySize,
		NoDefaultUserAgentHeader:      true,
		DisableHeaderNamesNormalizing: true,
		DisablePathNormalizing:        true,
		Dial:                          options.Dial,
	}

	return &upstreamForwarder{
		client:   client,
		scheme:   u.Scheme,
		host:     u.Host,
		basePath: strings.TrimSuffix(u.Path, "/"),
		timeout:  options.Timeout,
	}, nil
}

func (f *upstreamForwarder) Target() string {
	return f.scheme + "://" + f.host + f.basePath
}

func (f *upstreamForwarder) Forward(req *fasthttp.Request, resp *fasthttp.Response, clientIP string) error {
	out := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(out)

	req.CopyTo(out)
	originalHost := string(req.Header.Host())
	for _, h := range hopHeaders {
		out.Header.Del(h)
	}

	out.SetRequestURI(f.targetURL(req))
	out.UseHostHeader = false

	if clientIP != "" {
		if prior := out.Header.Peek(forwardedForHeader); len(prior) > 0 {
			out.Header.Set(forwardedForHeader, string(prior)+", "+clientIP)
		} else {
			out.Header.Set(forwardedForHeader, clientIP)
		}
	}
	if originalHost != "" {
		out.Header.Set(forwardedHostHeader, originalHost)
	}

	if err := f.client.DoTimeout(out, resp, f.timeout); err != nil {
		return fmt.Errorf("request to upstream %s failed: %w", f.host, err)
	}
	for _, h := range hopHeaders {
		resp.Header.Del(h)
	}
	return nil
}

func (f *upstreamForwarder) targetURL(req *fasthttp.Request) string {
	path := string(req.URI().PathOriginal())
	if path == "" {
		path = "/"
	}
	target := f.scheme + "://" + f.host + f.basePath + path
	if q := req.URI().QueryString(); len(q) > 0 {
		target += "?" + string(q)
	}
	return target
}
