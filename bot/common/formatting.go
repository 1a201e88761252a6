package common

import (
	"fmt"
	"strconv"
)

// ParseSnowflake converts a Discord ID string to int64
func ParseSnowflake(id string) (int64, error) {
	v, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", id, err)
	}
	return v, nil
}

// FormatSnowflake converts an int64 Discord ID to its string form
func FormatSnowflake(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ChannelMention returns a Discord mention string for a channel
func ChannelMention(channelID int64) string {
	return "<#" + FormatSnowflake(channelID) + ">"
}

// MessageLink returns the jump URL of a guild message
func MessageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

