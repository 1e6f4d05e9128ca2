package event

import "github.com/NeuralTrust/BotGate/pkg/config"

type UpdatePolicyEvent struct {
	Policy config.BotPolicyConfig `json:"policy"`
}

func (e UpdatePolicyEvent) Type() string {
	return UpdatePolicyEventType
}
