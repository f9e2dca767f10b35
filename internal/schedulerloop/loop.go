package schedulerloop

import (
	"context"
	"log"
	"time"

	"github.com/bretmckee/game-scheduler/internal/clock"
	"github.com/bretmckee/game-scheduler/internal/failure"
	"github.com/bretmckee/game-scheduler/internal/notify"
	"github.com/bretmckee/game-scheduler/internal/publish"
	"github.com/bretmckee/game-scheduler/internal/schedule"
)

// Notifier is the subset of notify.Channel the loop depends on, so tests
// can substitute a fake subscription.
type Notifier interface {
	Subscribe(ctx context.Context) (<-chan notify.Notification, func(), error)
}

// Publisher is the subset of publish.Adapter the loop depends on.
type Publisher interface {
	Publish(ctx context.Context, row schedule.Row) error
	PublishFailure(ctx context.Context, row schedule.Row, attempts int) error
}

var _ Publisher = (*publish.Adapter)(nil)
var _ Notifier = (*notify.Channel)(nil)

// Loop drives the INIT -> QUERY -> WAIT -> DISPATCH -> MARK state machine
// as a single event-driven loop, woken by LISTEN/NOTIFY rather than
// polling on a fixed interval.
type Loop struct {
	store    schedule.Store
	notifier Notifier
	pub      Publisher
	clock    clock.Clock
	retries  RetryTracker
	cfg      Config

	consecutiveTransient int
}

func New(store schedule.Store, notifier Notifier, pub Publisher, c clock.Clock, retries RetryTracker, cfg Config) *Loop {
	return &Loop{
		store:    store,
		notifier: notifier,
		pub:      pub,
		clock:    c,
		retries:  retries,
		cfg:      cfg,
	}
}

// Run blocks until ctx is cancelled or a Fatal-classified error occurs.
// A non-nil return other than context.Canceled/context.DeadlineExceeded
// means the caller should treat this as process-fatal and exit.
func (l *Loop) Run(ctx context.Context) error {
	notifyCh, stop, err := l.notifier.Subscribe(ctx)
	if err != nil {
		return failure.New(failure.Fatal, err)
	}
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := l.clock.Now()
		cause, waitErr := l.waitForWork(ctx, notifyCh)
		if waitErr != nil {
			return waitErr
		}
		wakeCauseTotal.WithLabelValues(cause).Inc()

		if err := l.dispatchBatch(ctx); err != nil {
			if failure.ClassOf(err) == failure.Fatal {
				return err
			}
			// Transient/PersistentPerRow errors within a batch are
			// handled per-row inside dispatchBatch; reaching here means
			// the batch-level claim itself failed.
			l.consecutiveTransient++
			l.backoff(ctx)
		} else {
			l.consecutiveTransient = 0
		}

		loopIterationSeconds.Observe(l.clock.Now().Sub(start).Seconds())
	}
}

const (
	causeNotify  = "notify"
	causeTimer   = "timer"
	causeSafety  = "safety_timeout"
	causeNoDelay = "immediate"
)

// waitForWork implements QUERY+WAIT: it peeks the next due row, sleeps
// until shortly before it's due (bounded by safety_timeout), and returns
// early if a notification or context cancellation arrives first.
func (l *Loop) waitForWork(ctx context.Context, notifyCh <-chan notify.Notification) (string, error) {
	queryCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	dueTime, _, ok, err := l.store.PeekNextDue(queryCtx, l.clock.Now())
	cancel()
	if err != nil {
		queryErrorsTotal.WithLabelValues(failure.ClassOf(err).String()).Inc()
		if failure.ClassOf(err) == failure.Fatal {
			return "", err
		}
		// Transient peek failure: fall back to the safety timeout rather
		// than spinning.
		ok = false
	}

	wait := l.cfg.SafetyTimeout
	if ok {
		untilDue := dueTime.Sub(l.clock.Now()) - l.cfg.SmallLead
		if untilDue < 0 {
			untilDue = 0
		}
		if untilDue < wait {
			wait = untilDue
		}
	}

	if wait <= 0 {
		return causeNoDelay, nil
	}

	timer := l.clock.After(wait)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case _, open := <-notifyCh:
		if open {
			return causeNotify, nil
		}
		// The subscription has ended and will never deliver again, so
		// wait out the timer instead of treating closure as a wake-up.
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer:
		}
	case <-timer:
	}
	if wait >= l.cfg.SafetyTimeout {
		return causeSafety, nil
	}
	return causeTimer, nil
}

// backoff delays the next QUERY after a batch-level failure, growing
// with consecutive failures up to the safety timeout so a persistently
// broken store doesn't spin the loop.
func (l *Loop) backoff(ctx context.Context) {
	delay := time.Duration(l.consecutiveTransient) * time.Second
	if delay > l.cfg.SafetyTimeout {
		delay = l.cfg.SafetyTimeout
	}
	if delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-l.clock.After(delay):
	}
}

// dispatchBatch implements DISPATCH+MARK: it claims up to batch_limit due
// rows one at a time, publishing and marking each within the transaction
// that claimed it, so no other instance can ever see that row as both
// claimed and unsent at once. Per-row errors never abort the batch; only
// a Fatal classification propagates up.
func (l *Loop) dispatchBatch(ctx context.Context) error {
	claimed, err := l.store.Dispatch(ctx, l.clock.Now(), l.cfg.Grace, l.cfg.CallTimeout, l.cfg.BatchLimit, l.dispatchRow)
	claimBatchSize.Observe(float64(claimed))
	return err
}

// dispatchRow runs inside the transaction that claimed row. Returning
// markSent=true commits the row as sent; any other return rolls that
// transaction back, leaving the row due and unsent so a later pass can
// reclaim it. A non-nil error is only ever Fatal — Transient and
// PersistentPerRow outcomes are handled here and reported as nil so the
// batch continues to the next row.
func (l *Loop) dispatchRow(ctx context.Context, row schedule.Row) (bool, error) {
	err := l.pub.Publish(ctx, row)

	if err == nil {
		if resetErr := l.retries.Reset(ctx, row.ID); resetErr != nil {
			log.Printf("schedulerloop: reset retry counter for %s: %v", row.ID, resetErr)
		}
		dispatchedTotal.WithLabelValues("published").Inc()
		return true, nil
	}

	kind := failure.ClassOf(err)
	queryErrorsTotal.WithLabelValues(kind.String()).Inc()

	if kind == failure.Fatal {
		return false, err
	}

	if kind == failure.Transient {
		dispatchedTotal.WithLabelValues("retried").Inc()
		return false, nil
	}

	// PersistentPerRow: count the attempt and dead-letter once the
	// budget is exhausted.
	attempts, trackErr := l.retries.Increment(ctx, row.ID)
	if trackErr != nil {
		log.Printf("schedulerloop: increment retry counter for %s: %v", row.ID, trackErr)
	}
	if attempts < l.cfg.MaxAttempts {
		dispatchedTotal.WithLabelValues("retried").Inc()
		return false, nil
	}

	if failErr := l.pub.PublishFailure(ctx, row, attempts); failErr != nil {
		log.Printf("schedulerloop: publish dead-letter event for %s: %v", row.ID, failErr)
	}
	dispatchedTotal.WithLabelValues("dead_lettered").Inc()
	return true, nil
}
