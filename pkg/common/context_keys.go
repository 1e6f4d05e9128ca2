package common

type contextKey string

const (
	TraceIdKey         contextKey = "trace_id"
	IdentityContextKey contextKey = "identity"
	VerdictContextKey  contextKey = "verdict"
	DecisionContextKey contextKey = "decision"
	SubjectContextKey  contextKey = "subject"
	LatencyContextKey  contextKey = "__execution_time"
)
