// Package publish translates a claimed schedule row into a typed event
// and hands it to the bus with at-least-once semantics and a
// deterministic dedup key.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bretmckee/game-scheduler/internal/schedule"
	"golang.org/x/time/rate"
)

// Adapter wraps a Bus with a steady-state outbound rate limit, distinct
// from the loop's backoff, which governs the next iteration's timing, not
// per-message throughput.
type Adapter struct {
	bus     Bus
	limiter *rate.Limiter
}

// NewAdapter creates an Adapter. ratePerSecond/burst size the token
// bucket; pass 0 for ratePerSecond to disable limiting (useful in tests).
func NewAdapter(bus Bus, ratePerSecond float64, burst int) *Adapter {
	var limiter *rate.Limiter
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	}
	return &Adapter{bus: bus, limiter: limiter}
}

// Publish translates row into its envelope and hands it to the bus.
// On success the caller should mark the row sent in the same transaction
// that claimed it. On error the caller must leave the row unmarked so it
// is reclaimed on a subsequent iteration.
func (a *Adapter) Publish(ctx context.Context, row schedule.Row) error {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("publish rate limit wait: %w", err)
		}
	}

	env := ToEnvelope(row)
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope for row %s: %w", row.ID, err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := a.bus.Publish(publishCtx, env.Event, row.GameID, body); err != nil {
		return fmt.Errorf("publish row %s: %w", row.ID, err)
	}
	return nil
}

// PublishFailure hands the dead-letter event to the bus. A failure here is
// logged by the caller but never blocks dead-lettering — the row is
// marked sent regardless.
func (a *Adapter) PublishFailure(ctx context.Context, row schedule.Row, attempts int) error {
	env := ToFailedEnvelope(row, attempts)
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal failed-envelope for row %s: %w", row.ID, err)
	}
	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return a.bus.Publish(publishCtx, env.Event, row.GameID, body)
}

func (a *Adapter) Close() error { return a.bus.Close() }
