package response

import (
	"github.com/valyala/fastjson"
)

// RecentDecision is the compact view of an audit record served by the
// recent decisions endpoint.
type RecentDecision struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	IP         string `json:"ip"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Category   string `json:"category"`
	Confidence int    `json:"confidence"`
	IsBot      bool   `json:"is_bot"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
	Intended   string `json:"intended,omitempty"`
}

var recentParserPool fastjson.ParserPool

// ProjectRecentDecision extracts the RecentDecision fields from a JSON
// encoded audit record without decoding the whole document.
func ProjectRecentDecision(raw string) (RecentDecision, error) {
	p := recentParserPool.Get()
	defer recentParserPool.Put(p)

	v, err := p.Parse(raw)
	if err != nil {
		return RecentDecision{}, err
	}
	return RecentDecision{
		ID:         string(v.GetStringBytes("id")),
		Timestamp:  string(v.GetStringBytes("timestamp")),
		IP:         string(v.GetStringBytes("identity", "ip")),
		Method:     string(v.GetStringBytes("method")),
		Path:       string(v.GetStringBytes("path")),
		Category:   string(v.GetStringBytes("verdict", "category")),
		Confidence: v.GetInt("verdict", "confidence"),
		IsBot:      v.GetBool("verdict", "is_bot"),
		Action:     string(v.GetStringBytes("decision", "action")),
		Reason:     string(v.GetStringBytes("decision", "reason")),
		Intended:   string(v.GetStringBytes("decision", "intended")),
	}, nil
}

type ListDecisionsOutput struct {
	Decisions interface{} `json:"decisions"`
	Count     int         `json:"count"`
}
