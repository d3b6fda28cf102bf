package domain

import "time"

// Event is one authorization-relevant action.
type Event struct {
	ID          string
	OrgID       string
	ActorUserID string
	Action      string
	Entity      string
	EntityID    string
	Details     map[string]any
	CreatedAt   time.Time
}
