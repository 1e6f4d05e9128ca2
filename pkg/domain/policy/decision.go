package policy

import "fmt"

type Action string

const (
	ActionAllow           Action = "ALLOW"
	ActionRedirectPaywall Action = "REDIRECT_PAYWALL"
	ActionBlock           Action = "BLOCK"
)

// Mode controls how a paywall decision is enforced.
type Mode string

const (
	ModePaywall Mode = "paywall"
	ModeBlock   Mode = "block"
	ModeMonitor Mode = "monitor"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePaywall, ModeBlock, ModeMonitor:
		return Mode(s), nil
	case "":
		return ModePaywall, nil
	}
	return "", fmt.Errorf("invalid mode: %s, must be one of: paywall, block, monitor", s)
}

const (
	ReasonKillSwitch               = "kill_switch"
	ReasonPaywallPath              = "paywall_path"
	ReasonBypass                   = "bypass"
	ReasonIPAllowed                = "ip_allowed"
	ReasonIPBlocked                = "ip_blocked"
	ReasonHuman                    = "human"
	ReasonAIPublicPath             = "ai_public_path"
	ReasonAIAssistant              = "ai_assistant"
	ReasonUnauthorizedBot          = "unauthorized_bot"
	ReasonAuthorizedAllowedPath    = "authorized_allowed_path"
	ReasonAuthorizedRestrictedPath = "authorized_restricted_path"
)

// Decision is what the HTTP layer acts upon.
type Decision struct {
	Action         Action `json:"action"`
	RedirectTarget string `json:"redirect_target,omitempty"`
	Reason         string `json:"reason"`
	// Intended holds the action that would have been taken in monitor mode.
	Intended Action `json:"intended,omitempty"`
}

func Allow(reason string) Decision {
	return Decision{Action: ActionAllow, Reason: reason}
}
