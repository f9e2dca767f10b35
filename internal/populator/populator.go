// Package populator keeps the notification_schedule table consistent with
// the current state of each game.
package populator

import (
	"context"
	"fmt"
	"time"

	"github.com/bretmckee/game-scheduler/internal/clock"
	"github.com/bretmckee/game-scheduler/internal/reminders"
	"github.com/bretmckee/game-scheduler/internal/schedule"
)

// DefaultGameDuration is used when a game has no explicit duration, for
// computing the status_completed due_time.
const DefaultGameDuration = 2 * time.Hour

// ScheduleWriter is the subset of schedule.Store (or a
// schedule.TxWriter wrapping the caller's transaction) the Populator
// needs.
type ScheduleWriter interface {
	Upsert(ctx context.Context, gameID string, kind schedule.Kind, offsetMinutes *int, dueTime time.Time) (string, error)
	DeleteByGame(ctx context.Context, gameID string) error
}

// Populator recomputes and writes a game's schedule rows.
type Populator struct {
	clock clock.Clock
}

func New(c clock.Clock) *Populator {
	return &Populator{clock: c}
}

// Populate recomputes and upserts the full schedule for one game, writing
// through w — which the caller should bind to the same transaction that
// is mutating the game row, so a rollback of that transaction rolls the
// schedule back with it.
func (p *Populator) Populate(ctx context.Context, w ScheduleWriter, g *reminders.Game) error {
	now := p.clock.Now()
	offsets := reminders.Resolve(g)

	// Step 3: delete existing rows so stale offsets from an earlier,
	// later scheduled_at never survive a reschedule-to-earlier (I3).
	if err := w.DeleteByGame(ctx, g.ID); err != nil {
		return fmt.Errorf("clear existing schedule for game %s: %w", g.ID, err)
	}

	// Step 4: one reminder row per resolved offset, skipping any whose
	// computed due_time has already passed.
	for _, offsetMinutes := range offsets {
		dueTime := g.ScheduledAt.Add(-time.Duration(offsetMinutes) * time.Minute)
		if !dueTime.After(now) {
			continue
		}
		offset := offsetMinutes
		if _, err := w.Upsert(ctx, g.ID, schedule.KindReminder, &offset, dueTime); err != nil {
			return fmt.Errorf("upsert reminder(%dm) for game %s: %w", offsetMinutes, g.ID, err)
		}
	}

	// Step 5: one-shot immediate join announcement on creation only.
	if g.JustCreated {
		if _, err := w.Upsert(ctx, g.ID, schedule.KindJoinAnnouncement, nil, now); err != nil {
			return fmt.Errorf("upsert join_announcement for game %s: %w", g.ID, err)
		}
	}

	// Step 6: status-transition rows. A game scheduled entirely in the
	// past still gets these so the loop fires them on the next
	// iteration.
	duration := g.Duration
	if duration <= 0 {
		duration = DefaultGameDuration
	}
	if _, err := w.Upsert(ctx, g.ID, schedule.KindStatusInProgress, nil, g.ScheduledAt); err != nil {
		return fmt.Errorf("upsert status_in_progress for game %s: %w", g.ID, err)
	}
	if _, err := w.Upsert(ctx, g.ID, schedule.KindStatusCompleted, nil, g.ScheduledAt.Add(duration)); err != nil {
		return fmt.Errorf("upsert status_completed for game %s: %w", g.ID, err)
	}

	return nil
}

// Clear removes every schedule row for a game (used on cancellation).
func (p *Populator) Clear(ctx context.Context, w ScheduleWriter, gameID string) error {
	return w.DeleteByGame(ctx, gameID)
}
