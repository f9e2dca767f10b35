package schedule

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// TxWriter writes schedule rows inside a transaction the caller already
// holds open, so the schedule writes commit atomically with whatever
// game mutation the caller is making.
type TxWriter struct {
	tx pgx.Tx
}

// NewTxWriter wraps an in-flight pgx.Tx, typically one the Web API opened
// to mutate a game row. Upsert/DeleteByGame run against that same tx and
// only become visible to the rest of the system on the caller's commit.
func NewTxWriter(tx pgx.Tx) *TxWriter {
	return &TxWriter{tx: tx}
}

func (w *TxWriter) Upsert(ctx context.Context, gameID string, kind Kind, offsetMinutes *int, dueTime time.Time) (string, error) {
	return upsertRow(ctx, w.tx, gameID, kind, offsetMinutes, dueTime)
}

func (w *TxWriter) DeleteByGame(ctx context.Context, gameID string) error {
	return deleteByGame(ctx, w.tx, gameID)
}
