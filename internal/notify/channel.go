// Package notify implements a dedicated LISTEN connection that wakes the
// scheduler loop whenever the schedule table is mutated within the
// near-term horizon.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

const channelName = "notification_schedule_changes"

// Notification mirrors the trigger's JSON payload.
type Notification struct {
	Op      string    `json:"op"`
	GameID  string    `json:"game_id"`
	DueTime time.Time `json:"due_time"`
}

// Channel owns a dedicated connection (outside any pool, since LISTEN is
// connection-scoped) and fans out notifications to a buffered channel. The
// channel is lossy by contract: a slow or disconnected consumer drops
// notifications and relies on the scheduler's safety timeout to
// reconcile.
type Channel struct {
	connString string
}

func New(connString string) *Channel {
	return &Channel{connString: connString}
}

// Subscribe opens a dedicated LISTEN connection and returns a channel of
// notifications plus a close function. The returned channel is closed
// when ctx is cancelled or the connection is lost; a lost connection is
// not reopened. Callers should fall back to their safety_timeout in
// either case, not treat channel closure as fatal.
func (c *Channel) Subscribe(ctx context.Context) (<-chan Notification, func(), error) {
	conn, err := pgx.Connect(ctx, c.connString)
	if err != nil {
		return nil, nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
		conn.Close(ctx)
		return nil, nil, err
	}

	out := make(chan Notification, 64)
	closeCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(out)
		defer conn.Close(context.Background())
		for {
			n, err := conn.WaitForNotification(closeCtx)
			if err != nil {
				if closeCtx.Err() != nil {
					return
				}
				log.Printf("notify: listen connection lost: %v", err)
				return
			}

			var payload Notification
			if err := json.Unmarshal([]byte(n.Payload), &payload); err != nil {
				log.Printf("notify: dropping malformed payload: %v", err)
				continue
			}

			select {
			case out <- payload:
			default:
				// Consumer is behind; drop rather than block the LISTEN
				// loop. The scheduler's peek_next_due re-query plus
				// safety_timeout make this safe to lose.
				log.Printf("notify: subscriber channel full, dropping notification for game %s", payload.GameID)
			}
		}
	}()

	return out, cancel, nil
}
