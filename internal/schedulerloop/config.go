// Package schedulerloop implements the scheduler's core state machine:
// INIT -> QUERY -> WAIT -> DISPATCH -> MARK -> QUERY...
package schedulerloop

import "time"

// Config bundles the loop's tunables.
type Config struct {
	// BatchLimit caps rows claimed per DISPATCH pass.
	BatchLimit int
	// Grace is how far ahead of now a row's due_time may be and still be
	// claimed, so rows that are about to come due dispatch in the current
	// wake-up instead of forcing another loop iteration.
	Grace time.Duration
	// SafetyTimeout upper-bounds how long WAIT ever blocks even with no
	// due row and no notification, so a missed NOTIFY can't wedge the loop.
	SafetyTimeout time.Duration
	// SmallLead wakes the loop slightly before a row's due_time so the
	// claim query lands close to, rather than after, the true deadline.
	SmallLead time.Duration
	// MaxAttempts is the retry budget before a row is dead-lettered.
	MaxAttempts int
	// CallTimeout bounds a single row's claim-publish-mark round trip
	// within DISPATCH.
	CallTimeout time.Duration
}

// DefaultConfig returns production-sane tunables for a single scheduler
// instance.
func DefaultConfig() Config {
	return Config{
		BatchLimit:    50,
		Grace:         60 * time.Second,
		SafetyTimeout: 300 * time.Second,
		SmallLead:     10 * time.Second,
		MaxAttempts:   5,
		CallTimeout:   5 * time.Second,
	}
}
