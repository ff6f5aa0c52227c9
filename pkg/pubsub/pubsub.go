// Package pubsub carries layout lifecycle events from the engine to
// interested consumers: run start/finish, position frames, and drift
// corrector state changes.
package pubsub

import (
	"context"
	"encoding/json"
)

// Topic names published by the engine.
const (
	TopicLayoutStatus = "layout_status"
	TopicPositions    = "positions"
)

// Event represents a pub/sub event.
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"` // e.g., "run_started", "converged", "drift_stabilized"
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic ordering
}

// Subscription represents a client subscription to a topic.
type Subscription interface {
	// Topic returns the subscription topic.
	Topic() string

	// Events returns a channel for receiving events.
	Events() <-chan Event

	// Close closes the subscription.
	Close() error
}

// Publisher manages subscriptions and event publishing.
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic.
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions.
	Close() error
}

// LayoutStatus is the payload for layout_status events.
type LayoutStatus struct {
	State    string `json:"state"` // resolving, placing, simulating, done, error
	Strategy string `json:"strategy,omitempty"`
	Message  string `json:"message,omitempty"`
	RunID    string `json:"runId,omitempty"`
}

// PositionFrame is the payload for positions events. Positions travel
// as id -> [x y z] triples to keep the wire format renderer-neutral.
type PositionFrame struct {
	RunID     string               `json:"runId,omitempty"`
	Positions map[string][3]float64 `json:"positions"`
	Converged bool                 `json:"converged"`
}
