package model

import "strings"

// Channel is one of the metric slots tracked per player.
type Channel string

// Tracked channels.
const (
	Batting Channel = "batting"
	Bowling Channel = "bowling"
)

// Channels lists the tracked channels in display order.
var Channels = []Channel{Batting, Bowling}

// ParseChannel normalizes a performance type. Types other than batting and
// bowling (the store also accepts fielding) report false.
func ParseChannel(s string) (Channel, bool) {
	switch c := Channel(strings.ToLower(strings.TrimSpace(s))); c {
	case Batting, Bowling:
		return c, true
	default:
		return c, false
	}
}

func (c Channel) String() string { return string(c) }
