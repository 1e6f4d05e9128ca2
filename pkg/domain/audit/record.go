package audit

import (
	"context"
	"time"

	"github.com/NeuralTrust/BotGate/pkg/domain/classification"
	"github.com/NeuralTrust/BotGate/pkg/domain/policy"
)

type Identity struct {
	IP            string `json:"ip"`
	UserAgentHash string `json:"user_agent_hash"`
}

type UserAgentInfo struct {
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
	Device  string `json:"device,omitempty"`
}

// Record is the structured entry emitted once per classified request.
type Record struct {
	ID        string                 `json:"id"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Identity  Identity               `json:"identity"`
	UserAgent string                 `json:"user_agent"`
	UAInfo    *UserAgentInfo         `json:"ua_info,omitempty"`
	Method    string                 `json:"method"`
	Path      string                 `json:"path"`
	Verdict   classification.Verdict `json:"verdict"`
	Decision  policy.Decision        `json:"decision"`
	Timestamp time.Time              `json:"timestamp"`
}

// Sink stores decision records. Writes may block and are always made off
// the request path.
type Sink interface {
	Name() string
	Write(ctx context.Context, record *Record) error
	Close() error
}
