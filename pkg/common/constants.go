package common

const (
	CategoryHeader   = "X-BotGate-Category"
	ConfidenceHeader = "X-BotGate-Confidence"
	IsBotHeader      = "X-BotGate-Is-Bot"
	ClientIPHeader   = "X-BotGate-Client-IP"
	DecisionHeader   = "X-BotGate-Decision"
	TraceIDHeader    = "X-Trace-Id"
)
