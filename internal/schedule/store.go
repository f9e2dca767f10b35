package schedule

import (
	"context"
	"errors"
	"time"
)

// ErrConstraintViolation is returned by Upsert when a malformed argument
// is supplied (e.g. a nil offset for a reminder row) or the row fails a
// table CHECK constraint. A row matching an existing (game_id, kind,
// offset_minutes) is updated in place, not reported as a violation.
var ErrConstraintViolation = errors.New("schedule: constraint violation")

// Store is the durable, indexed schedule store. Implementations must
// honor:
//   - (I1) due_time only moves via upsert, never mutated by the dispatcher.
//   - (I2) sent transitions exactly once, false -> true.
//   - uniqueness of (game_id, kind, offset_minutes).
type Store interface {
	// Upsert inserts a new row or updates an existing (game_id, kind,
	// offset_minutes) match's due_time and resets sent=false. Idempotent
	// on identical inputs.
	Upsert(ctx context.Context, gameID string, kind Kind, offsetMinutes *int, dueTime time.Time) (rowID string, err error)

	// DeleteByGame removes every row for a game, used when a game's
	// schedule is recomputed from scratch or the game is cancelled.
	DeleteByGame(ctx context.Context, gameID string) error

	// PeekNextDue returns the smallest due_time among unsent rows, or
	// ok=false if the store holds no pending rows.
	PeekNextDue(ctx context.Context, now time.Time) (dueTime time.Time, rowID string, ok bool, err error)

	// Dispatch claims up to limit unsent rows with due_time <= now+grace,
	// one at a time, each inside its own transaction opened with
	// FOR UPDATE SKIP LOCKED so concurrent scheduler instances never
	// double-claim a row. Rows are considered in due_time ascending
	// order, ties broken by id.
	//
	// Each claimed row is handed to fn while its transaction is still
	// open. If fn returns markSent=true, sent=true is written and the
	// transaction commits before Dispatch moves on to the next row; any
	// other outcome rolls the transaction back, leaving the row unsent
	// and its lock released immediately, so it is reclaimable as soon as
	// a later pass claims it again. timeout bounds each row's full
	// claim-fn-mark round trip. Dispatch stops after limit rows or once
	// no more rows are due, and returns the count it processed along
	// with the first error fn or the claim itself produced.
	Dispatch(ctx context.Context, now time.Time, grace, timeout time.Duration, limit int, fn func(ctx context.Context, row Row) (markSent bool, err error)) (claimed int, err error)
}
