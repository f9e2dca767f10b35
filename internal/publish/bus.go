package publish

import "context"

// Bus is the at-least-once sink the publisher adapter hands envelopes to:
// a topic/exchange-based message broker, or a local stand-in for
// dev/test.
type Bus interface {
	Publish(ctx context.Context, topic string, key string, body []byte) error
	Close() error
}
