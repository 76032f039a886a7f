package statement

import "strings"

// Channel is the closed classification of a booking channel.
type Channel string

const (
	ChannelAirbnb Channel = "airbnb"
	ChannelOther  Channel = "other"
)

// ClassifySource classifies a raw booking-channel string. The match is a
// case-insensitive substring test so "Airbnb", "airbnb.com" and
// "Airbnb (API)" all classify the same way. Empty or garbage input is Other.
func ClassifySource(source string) Channel {
	if strings.Contains(strings.ToLower(source), "airbnb") {
		return ChannelAirbnb
	}
	return ChannelOther
}

// IsAirbnbSource reports whether the channel string is an Airbnb booking.
func IsAirbnbSource(source string) bool {
	return ClassifySource(source) == ChannelAirbnb
}
