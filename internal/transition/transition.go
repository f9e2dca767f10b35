// Package transition translates dispatched status_in_progress/
// status_completed rows into typed lifecycle events. Game lifecycle
// (start/end) rides the same schedule-row substrate as reminders, so this
// package is a thin translator rather than a separate scheduling
// mechanism.
package transition

import (
	"time"

	"github.com/bretmckee/game-scheduler/internal/schedule"
)

// State is the game lifecycle state a status row announces.
type State string

const (
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Event is the target-state notification derived from a dispatched
// status row.
type Event struct {
	GameID   string
	State    State
	OccursAt time.Time
}

// FromKind reports whether kind is a status-transition kind and, if so,
// which lifecycle state it represents.
func FromKind(kind schedule.Kind) (State, bool) {
	switch kind {
	case schedule.KindStatusInProgress:
		return StateInProgress, true
	case schedule.KindStatusCompleted:
		return StateCompleted, true
	default:
		return "", false
	}
}

// Translate converts a dispatched row into its Event, if row is a
// status-transition row.
func Translate(row schedule.Row) (Event, bool) {
	state, ok := FromKind(row.Kind)
	if !ok {
		return Event{}, false
	}
	return Event{GameID: row.GameID, State: state, OccursAt: row.DueTime}, true
}
