package infrastructure

import (
	"context"

	"linkkeeper/events"
)

// NoopEventPublisher is an event publisher that does nothing.
// Used when NATS_SERVERS is not configured.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// Publish does nothing with the event
func (n *NoopEventPublisher) Publish(ctx context.Context, event events.Event) error {
	return nil
}

// Forward does not subscribe to anything
func (n *NoopEventPublisher) Forward(bus *events.Bus) {}
