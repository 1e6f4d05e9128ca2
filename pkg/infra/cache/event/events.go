package event

type Event interface {
	Type() string
}

const (
	ResetBehaviorEventType = "ResetBehaviorEvent"
	UpdatePolicyEventType  = "UpdatePolicyEvent"
)
