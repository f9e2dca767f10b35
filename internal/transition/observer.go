package transition

import (
	"context"

	"github.com/bretmckee/game-scheduler/internal/schedule"
)

// Observer receives lifecycle transitions as they're dispatched. The
// diagnostics websocket hub implements this to push them to connected
// operators.
type Observer interface {
	OnTransition(Event)
}

// Publisher is the subset of the Event Publisher Adapter the decorator
// wraps (matches schedulerloop.Publisher).
type Publisher interface {
	Publish(ctx context.Context, row schedule.Row) error
	PublishFailure(ctx context.Context, row schedule.Row, attempts int) error
}

// ObservingPublisher decorates a Publisher so status-transition rows
// additionally fan out to an Observer on successful publish, without the
// scheduler loop needing any awareness of lifecycle semantics.
type ObservingPublisher struct {
	next     Publisher
	observer Observer
}

func Wrap(next Publisher, observer Observer) *ObservingPublisher {
	return &ObservingPublisher{next: next, observer: observer}
}

func (p *ObservingPublisher) Publish(ctx context.Context, row schedule.Row) error {
	if err := p.next.Publish(ctx, row); err != nil {
		return err
	}
	if evt, ok := Translate(row); ok && p.observer != nil {
		p.observer.OnTransition(evt)
	}
	return nil
}

func (p *ObservingPublisher) PublishFailure(ctx context.Context, row schedule.Row, attempts int) error {
	return p.next.PublishFailure(ctx, row, attempts)
}
