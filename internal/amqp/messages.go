package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Action names the category mutation an event records.
type Action string

const (
	ActionCreated         Action = "created"
	ActionUpdated         Action = "updated"
	ActionDeleted         Action = "deleted"
	ActionDomainsReplaced Action = "domains_replaced"
)

// CategoryEvent is published after the Athena API accepted a category
// mutation. The audit worker appends one sheet row per event.
type CategoryEvent struct {
	Action       Action    `json:"action"`
	Category     string    `json:"category"`
	PreviousName string    `json:"previous_name,omitempty"`
	Limit        string    `json:"limit,omitempty"`
	Domains      []string  `json:"domains,omitempty"`
	Actor        string    `json:"actor"`
	RequestID    string    `json:"request_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewCategoryEvent creates an event stamped with the current time.
func NewCategoryEvent(action Action, category, actor string) *CategoryEvent {
	return &CategoryEvent{
		Action:    action,
		Category:  category,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *CategoryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// CategoryEventFromJSON decodes and validates an event.
func CategoryEventFromJSON(data []byte) (*CategoryEvent, error) {
	var ev CategoryEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	switch ev.Action {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionDomainsReplaced:
	default:
		return nil, errors.New("unknown category event action: " + string(ev.Action))
	}
	if ev.Category == "" {
		return nil, errors.New("category event without category")
	}
	return &ev, nil
}
