package reminders

// FallbackOffsets is the hard-coded bottom rung of the inheritance ladder,
// used when no game, template, channel, or guild has specified reminder
// offsets.
var FallbackOffsets = []int{60, 15}

// Resolve implements the four-tier lookup ladder: game -> template ->
// channel -> guild -> hard-coded fallback. This is a lookup ladder, not a
// merge — the first non-null value wins in its entirety; there is no
// implicit merging across tiers.
func Resolve(g *Game) []int {
	if g.ReminderOffsets != nil {
		return g.ReminderOffsets
	}
	if g.Template != nil && g.Template.ReminderOffsets != nil {
		return g.Template.ReminderOffsets
	}
	if g.Channel != nil && g.Channel.ReminderOffsets != nil {
		return g.Channel.ReminderOffsets
	}
	if g.Guild != nil && g.Guild.ReminderOffsets != nil {
		return g.Guild.ReminderOffsets
	}
	return FallbackOffsets
}
