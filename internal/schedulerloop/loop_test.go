package schedulerloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bretmckee/game-scheduler/internal/clock"
	"github.com/bretmckee/game-scheduler/internal/failure"
	"github.com/bretmckee/game-scheduler/internal/notify"
	"github.com/bretmckee/game-scheduler/internal/schedule"
)

type fakeStore struct {
	mu       sync.Mutex
	rows     []schedule.Row
	sent     map[string]bool
	peekErr  error
	claimErr error
}

func (s *fakeStore) Upsert(context.Context, string, schedule.Kind, *int, time.Time) (string, error) {
	return "", nil
}
func (s *fakeStore) DeleteByGame(context.Context, string) error { return nil }

func (s *fakeStore) PeekNextDue(_ context.Context, now time.Time) (time.Time, string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peekErr != nil {
		return time.Time{}, "", false, s.peekErr
	}
	for _, r := range s.rows {
		if !s.sent[r.ID] {
			return r.DueTime, r.ID, true, nil
		}
	}
	return time.Time{}, "", false, nil
}

func (s *fakeStore) Dispatch(ctx context.Context, now time.Time, grace, timeout time.Duration, limit int, fn func(context.Context, schedule.Row) (bool, error)) (int, error) {
	s.mu.Lock()
	if s.claimErr != nil {
		s.mu.Unlock()
		return 0, s.claimErr
	}
	var due []schedule.Row
	for _, r := range s.rows {
		if len(due) >= limit {
			break
		}
		if s.sent[r.ID] {
			continue
		}
		if r.DueTime.After(now.Add(grace)) {
			continue
		}
		due = append(due, r)
	}
	s.mu.Unlock()

	claimed := 0
	for _, r := range due {
		markSent, err := fn(ctx, r)
		if markSent {
			s.mu.Lock()
			if s.sent == nil {
				s.sent = make(map[string]bool)
			}
			s.sent[r.ID] = true
			s.mu.Unlock()
		}
		claimed++
		if err != nil {
			return claimed, err
		}
	}
	return claimed, nil
}

type fakeNotifier struct {
	ch chan notify.Notification
}

func (n *fakeNotifier) Subscribe(context.Context) (<-chan notify.Notification, func(), error) {
	return n.ch, func() {}, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	failed    []string
	publishFn func(row schedule.Row) error
}

func (p *fakePublisher) Publish(_ context.Context, row schedule.Row) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.publishFn != nil {
		if err := p.publishFn(row); err != nil {
			return err
		}
	}
	p.published = append(p.published, row.ID)
	return nil
}

func (p *fakePublisher) PublishFailure(_ context.Context, row schedule.Row, attempts int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, row.ID)
	return nil
}

func testConfig() Config {
	return Config{
		BatchLimit:    10,
		Grace:         time.Minute,
		SafetyTimeout: 5 * time.Minute,
		SmallLead:     10 * time.Second,
		MaxAttempts:   3,
		CallTimeout:   time.Second,
	}
}

func TestLoopDispatchesDueRowImmediately(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	mc := clock.NewMock(now)
	store := &fakeStore{
		rows: []schedule.Row{{ID: "row-1", GameID: "game-1", Kind: schedule.KindReminder, DueTime: now.Add(-time.Second)}},
		sent: map[string]bool{},
	}
	notifier := &fakeNotifier{ch: make(chan notify.Notification)}
	pub := &fakePublisher{}
	retries := NewInMemoryRetryTracker()

	loop := New(store, notifier, pub, mc, retries, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	pub.publishFn = func(schedule.Row) error {
		cancel()
		return nil
	}

	err := loop.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if len(pub.published) != 1 || pub.published[0] != "row-1" {
		t.Errorf("published = %v, want [row-1]", pub.published)
	}
	if !store.sent["row-1"] {
		t.Errorf("row-1 not marked sent")
	}
}

func TestLoopDeadLettersAfterMaxAttempts(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	mc := clock.NewMock(now)
	store := &fakeStore{
		rows: []schedule.Row{{ID: "row-1", GameID: "game-1", Kind: schedule.KindReminder, DueTime: now.Add(-time.Second)}},
		sent: map[string]bool{},
	}
	notifier := &fakeNotifier{ch: make(chan notify.Notification)}
	pub := &fakePublisher{}
	retries := NewInMemoryRetryTracker()
	cfg := testConfig()
	cfg.MaxAttempts = 2

	loop := New(store, notifier, pub, mc, retries, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	pub.publishFn = func(schedule.Row) error {
		attempts++
		if attempts >= cfg.MaxAttempts {
			cancel()
		}
		return failure.New(failure.PersistentPerRow, errors.New("publisher rejected payload"))
	}

	_ = loop.Run(ctx)

	if len(pub.failed) != 1 {
		t.Fatalf("expected 1 dead-lettered row, got %d", len(pub.failed))
	}
	if !store.sent["row-1"] {
		t.Errorf("dead-lettered row should still be marked sent")
	}
}

func TestLoopFatalErrorPropagates(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	mc := clock.NewMock(now)
	store := &fakeStore{claimErr: failure.New(failure.Fatal, errors.New("schema mismatch"))}
	notifier := &fakeNotifier{ch: make(chan notify.Notification)}
	pub := &fakePublisher{}
	retries := NewInMemoryRetryTracker()

	loop := New(store, notifier, pub, mc, retries, testConfig())

	err := loop.Run(context.Background())
	if failure.ClassOf(err) != failure.Fatal {
		t.Fatalf("Run() error = %v, want Fatal classification", err)
	}
}
