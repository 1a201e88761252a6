package infrastructure

import "context"

// MessagePublisher is the transport NATSEventPublisher writes archive event
// envelopes to. NATSClient implements it over JetStream.
type MessagePublisher interface {
	// Publish stores data on subject, returning once the server acknowledged it
	Publish(ctx context.Context, subject string, data []byte) error
}

var _ MessagePublisher = (*NATSClient)(nil)
