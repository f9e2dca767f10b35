package publish

import (
	"context"
	"log"
)

// LogBus is a dev/test Bus that writes published messages to the
// standard logger instead of a real broker.
type LogBus struct {
	logger *log.Logger
}

func NewLogBus() *LogBus {
	return &LogBus{logger: log.Default()}
}

func (b *LogBus) Publish(_ context.Context, topic string, key string, body []byte) error {
	b.logger.Printf("[publish] topic=%s key=%s body=%s", topic, key, body)
	return nil
}

func (b *LogBus) Close() error { return nil }
