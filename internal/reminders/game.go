// Package reminders resolves the reminder-offset inheritance ladder and
// defines the read-only Game shape the Populator consumes.
package reminders

import (
	"context"
	"time"
)

// Game is the subset of game-entity data the Populator needs. The full
// game record lives in the Web API's domain; this is a read projection.
type Game struct {
	ID          string
	ScheduledAt time.Time
	Duration    time.Duration // 0 means "use the default" in populator.DefaultGameDuration
	JustCreated bool

	ReminderOffsets []int // explicit per-game override, nil if unset

	Template *Template
	Channel  *ChannelConfig
	Guild    *GuildConfig
}

// Template, ChannelConfig, and GuildConfig are the three tiers beneath the
// game itself in the four-tier lookup ladder. Each level is optional; the
// first non-nil ReminderOffsets wins.
type Template struct {
	ReminderOffsets []int
}

type ChannelConfig struct {
	ReminderOffsets []int
}

type GuildConfig struct {
	ReminderOffsets []int
}

// Repository is the read-only query interface the core depends on to
// look up a game's current reminder configuration by ID.
type Repository interface {
	GetGame(ctx context.Context, id string) (*Game, error)
}
