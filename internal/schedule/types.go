package schedule

import "time"

// Kind enumerates the notification variants a schedule row can represent.
// Status-transition variants share this shape rather than living in a
// separate table.
type Kind string

const (
	KindReminder          Kind = "reminder"
	KindJoinAnnouncement  Kind = "join_announcement"
	KindStatusInProgress  Kind = "status_in_progress"
	KindStatusCompleted   Kind = "status_completed"
)

// Row is a single pending (or sent) notification schedule entry.
// (game_id, kind, offset_minutes) is unique; OffsetMinutes is only
// meaningful for KindReminder and is nil for every other kind.
type Row struct {
	ID             string
	GameID         string
	Kind           Kind
	OffsetMinutes  *int
	DueTime        time.Time
	Sent           bool
	CreatedAt      time.Time
}
