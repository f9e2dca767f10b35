package publish

import (
	"fmt"
	"time"

	"github.com/bretmckee/game-scheduler/internal/schedule"
)

// EventName maps a schedule.Kind to its outbound event name.
func EventName(kind schedule.Kind) string {
	switch kind {
	case schedule.KindReminder:
		return "game.reminder_due"
	case schedule.KindJoinAnnouncement:
		return "game.join_announcement_due"
	case schedule.KindStatusInProgress, schedule.KindStatusCompleted:
		return "game.status_transition_due"
	default:
		return "game.unknown_due"
	}
}

// Envelope is the bus message body.
type Envelope struct {
	Event         string `json:"event"`
	DedupKey      string `json:"dedup_key"`
	GameID        string `json:"game_id"`
	Kind          string `json:"kind"`
	OffsetMinutes *int   `json:"offset_minutes,omitempty"`
	ScheduledFor  string `json:"scheduled_for"`
}

// dedupKey derives the deterministic deduplication key from (row.id,
// kind), letting consumers collapse duplicate deliveries if a row is ever
// redelivered after a crash.
func dedupKey(rowID string, kind schedule.Kind) string {
	return fmt.Sprintf("%s:%s", rowID, kind)
}

// ToEnvelope translates a schedule row into its outbound event.
// ScheduledFor is always the row's nominal due_time, never the actual
// dispatch time, so idempotent consumers keyed by ScheduledFor behave
// predictably regardless of how late within the grace window a row fired.
func ToEnvelope(row schedule.Row) Envelope {
	return Envelope{
		Event:         EventName(row.Kind),
		DedupKey:      dedupKey(row.ID, row.Kind),
		GameID:        row.GameID,
		Kind:          string(row.Kind),
		OffsetMinutes: row.OffsetMinutes,
		ScheduledFor:  row.DueTime.UTC().Format(time.RFC3339),
	}
}

// FailedEnvelope is the dead-letter event, distinct from the normal
// envelope so downstream has a concrete signal that a row exhausted its
// retry budget instead of being dispatched.
type FailedEnvelope struct {
	Event    string `json:"event"`
	DedupKey string `json:"dedup_key"`
	GameID   string `json:"game_id"`
	Kind     string `json:"kind"`
	Attempts int    `json:"attempts"`
}

func ToFailedEnvelope(row schedule.Row, attempts int) FailedEnvelope {
	return FailedEnvelope{
		Event:    "game.notification_failed",
		DedupKey: dedupKey(row.ID, row.Kind),
		GameID:   row.GameID,
		Kind:     string(row.Kind),
		Attempts: attempts,
	}
}
