package populator

import (
	"context"
	"testing"
	"time"

	"github.com/bretmckee/game-scheduler/internal/clock"
	"github.com/bretmckee/game-scheduler/internal/reminders"
	"github.com/bretmckee/game-scheduler/internal/schedule"
	"github.com/google/uuid"
)

type fakeWriterRow struct {
	kind          schedule.Kind
	offsetMinutes *int
	dueTime       time.Time
}

type fakeWriter struct {
	rows map[string][]fakeWriterRow // gameID -> rows
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{rows: make(map[string][]fakeWriterRow)}
}

func (f *fakeWriter) Upsert(_ context.Context, gameID string, kind schedule.Kind, offsetMinutes *int, dueTime time.Time) (string, error) {
	rows := f.rows[gameID]
	for i, r := range rows {
		if r.kind == kind && equalOffset(r.offsetMinutes, offsetMinutes) {
			rows[i].dueTime = dueTime
			f.rows[gameID] = rows
			return uuid.NewString(), nil
		}
	}
	f.rows[gameID] = append(rows, fakeWriterRow{kind: kind, offsetMinutes: offsetMinutes, dueTime: dueTime})
	return uuid.NewString(), nil
}

func (f *fakeWriter) DeleteByGame(_ context.Context, gameID string) error {
	delete(f.rows, gameID)
	return nil
}

func equalOffset(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intp(v int) *int { return &v }

func TestPopulateCreatesReminderAndStatusRows(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	c := clock.NewMock(now)
	p := New(c)
	w := newFakeWriter()

	g := &reminders.Game{
		ID:              "game-1",
		ScheduledAt:     now.Add(2 * time.Hour),
		ReminderOffsets: []int{60, 15},
		JustCreated:     true,
	}

	if err := p.Populate(context.Background(), w, g); err != nil {
		t.Fatalf("Populate: %v", err)
	}

	rows := w.rows["game-1"]
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows (2 reminders + join_announcement + 2 status rows), got %d: %+v", len(rows), rows)
	}

	var gotKinds []schedule.Kind
	for _, r := range rows {
		gotKinds = append(gotKinds, r.kind)
	}
	want := map[schedule.Kind]bool{
		schedule.KindReminder:         true,
		schedule.KindJoinAnnouncement: true,
		schedule.KindStatusInProgress: true,
		schedule.KindStatusCompleted:  true,
	}
	for _, k := range gotKinds {
		if !want[k] {
			t.Errorf("unexpected kind %s", k)
		}
	}
}

func TestPopulateSkipsPastReminders(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	c := clock.NewMock(now)
	p := New(c)
	w := newFakeWriter()

	// scheduled_at is 30 minutes out: the 60-minute reminder's computed
	// due_time (scheduled_at - 60m) is already in the past and must be
	// filtered out.
	g := &reminders.Game{
		ID:              "game-2",
		ScheduledAt:     now.Add(30 * time.Minute),
		ReminderOffsets: []int{60, 15},
	}

	if err := p.Populate(context.Background(), w, g); err != nil {
		t.Fatalf("Populate: %v", err)
	}

	var reminderOffsets []int
	for _, r := range w.rows["game-2"] {
		if r.kind == schedule.KindReminder {
			reminderOffsets = append(reminderOffsets, *r.offsetMinutes)
		}
	}
	if len(reminderOffsets) != 1 || reminderOffsets[0] != 15 {
		t.Errorf("expected only the 15-minute reminder to survive, got %v", reminderOffsets)
	}
}

func TestPopulateIsIdempotent(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	c := clock.NewMock(now)
	p := New(c)
	w := newFakeWriter()

	g := &reminders.Game{
		ID:              "game-3",
		ScheduledAt:     now.Add(2 * time.Hour),
		ReminderOffsets: []int{60, 15},
	}

	if err := p.Populate(context.Background(), w, g); err != nil {
		t.Fatalf("first Populate: %v", err)
	}
	first := len(w.rows["game-3"])

	if err := p.Populate(context.Background(), w, g); err != nil {
		t.Fatalf("second Populate: %v", err)
	}
	second := len(w.rows["game-3"])

	if first != second {
		t.Errorf("populate is not idempotent: first=%d second=%d", first, second)
	}
}

func TestClearRemovesAllRows(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	c := clock.NewMock(now)
	p := New(c)
	w := newFakeWriter()

	g := &reminders.Game{ID: "game-4", ScheduledAt: now.Add(time.Hour), ReminderOffsets: []int{15}}
	if err := p.Populate(context.Background(), w, g); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if err := p.Clear(context.Background(), w, "game-4"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(w.rows["game-4"]) != 0 {
		t.Errorf("expected zero rows after Clear, got %d", len(w.rows["game-4"]))
	}
}
