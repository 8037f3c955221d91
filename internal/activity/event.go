package activity

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrQueueFull   = errors.New("activity queue full")
	ErrQueueClosed = errors.New("activity queue closed")
)

// Event is one activity log entry in flight. ID is assigned by the
// publisher side and survives redelivery.
type Event struct {
	ID         snowflake.ID   `json:"id"`
	User       string         `json:"user"`
	Action     string         `json:"action"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher accepts events without waiting for them to be stored.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Sink persists delivered events. Write must tolerate the same event
// being delivered more than once.
type Sink interface {
	Write(ctx context.Context, e Event) error
}
