package reminders

import (
	"reflect"
	"testing"
)

func TestResolveLadder(t *testing.T) {
	cases := []struct {
		name string
		game *Game
		want []int
	}{
		{
			name: "game override wins",
			game: &Game{
				ReminderOffsets: []int{5},
				Template:        &Template{ReminderOffsets: []int{60, 15}},
			},
			want: []int{5},
		},
		{
			name: "template wins over channel and guild",
			game: &Game{
				Template: &Template{ReminderOffsets: []int{30}},
				Channel:  &ChannelConfig{ReminderOffsets: []int{10}},
				Guild:    &GuildConfig{ReminderOffsets: []int{1}},
			},
			want: []int{30},
		},
		{
			name: "channel wins over guild",
			game: &Game{
				Channel: &ChannelConfig{ReminderOffsets: []int{10}},
				Guild:   &GuildConfig{ReminderOffsets: []int{1}},
			},
			want: []int{10},
		},
		{
			name: "guild wins over fallback",
			game: &Game{
				Guild: &GuildConfig{ReminderOffsets: []int{1}},
			},
			want: []int{1},
		},
		{
			name: "fallback when nothing set",
			game: &Game{},
			want: []int{60, 15},
		},
		{
			name: "empty slice is an explicit override, not absence",
			game: &Game{ReminderOffsets: []int{}},
			want: []int{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.game)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Resolve() = %v, want %v", got, tc.want)
			}
		})
	}
}
