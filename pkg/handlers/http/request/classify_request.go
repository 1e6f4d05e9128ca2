package request

import (
	"errors"
	"strings"
)

var (
	ErrMissingUserAgentField = errors.New("user_agent field is required (it may be an empty string only with allow_empty_user_agent)")
	ErrInvalidPathField      = errors.New("path must start with /")
)

// ClassifyRequest describes a synthetic request to run through the
// classifier without touching behavioral state.
type ClassifyRequest struct {
	UserAgent           *string           `json:"user_agent"`
	AllowEmptyUserAgent bool              `json:"allow_empty_user_agent"`
	Method              string            `json:"method"`
	Path                string            `json:"path"`
	RawQuery            string            `json:"query"`
	IP                  string            `json:"ip"`
	Headers             map[string]string `json:"headers"`
	Bypass              bool              `json:"bypass"`
}

func (r *ClassifyRequest) Validate() error {
	if r.UserAgent == nil || (*r.UserAgent == "" && !r.AllowEmptyUserAgent) {
		return ErrMissingUserAgentField
	}
	if r.Path == "" {
		r.Path = "/"
	}
	if !strings.HasPrefix(r.Path, "/") {
		return ErrInvalidPathField
	}
	if r.Method == "" {
		r.Method = "GET"
	}
	r.Method = strings.ToUpper(r.Method)
	return nil
}

// LowerHeaders returns the headers keyed by lower-case name.
func (r *ClassifyRequest) LowerHeaders() map[string]string {
	out := make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
