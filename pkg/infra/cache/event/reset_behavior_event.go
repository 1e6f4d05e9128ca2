package event

import "time"

// ResetBehaviorEvent asks every proxy to drop its timing windows.
type ResetBehaviorEvent struct {
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

func (e ResetBehaviorEvent) Type() string {
	return ResetBehaviorEventType
}
