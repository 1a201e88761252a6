package models

// GuildConfig represents the archive configuration for a single guild
type GuildConfig struct {
	GuildID                int64  `db:"guild_id" json:"-"`
	ArchiveChannelID       *int64 `db:"archive_channel_id" json:"archive_channel_id,omitempty"` // Nullable - NULL disables archiving
	ArchivePrivateChannels bool   `db:"archive_private" json:"archive_private,omitempty"`
}

// DefaultGuildConfig returns the configuration used for guilds without an entry
func DefaultGuildConfig(guildID int64) GuildConfig {
	return GuildConfig{GuildID: guildID}
}

// HasArchiveChannel checks if an archive channel is configured
func (gc GuildConfig) HasArchiveChannel() bool {
	return gc.ArchiveChannelID != nil && *gc.ArchiveChannelID > 0
}

// ArchiveChannel returns the archive channel ID, or 0 when none is configured
func (gc GuildConfig) ArchiveChannel() int64 {
	if !gc.HasArchiveChannel() {
		return 0
	}
	return *gc.ArchiveChannelID
}

// IsDefault reports whether the config carries no information beyond the defaults.
func (gc GuildConfig) IsDefault() bool {
	return !gc.HasArchiveChannel() && !gc.ArchivePrivateChannels
}

// IsArchiveChannel reports whether channelID is this guild's archive channel
func (gc GuildConfig) IsArchiveChannel(channelID int64) bool {
	return gc.HasArchiveChannel() && *gc.ArchiveChannelID == channelID
}

// SetArchiveChannel sets the archive channel ID (nil disables archiving)
func (gc *GuildConfig) SetArchiveChannel(channelID *int64) {
	if channelID == nil || *channelID <= 0 {
		gc.ArchiveChannelID = nil
		return
	}
	id := *channelID
	gc.ArchiveChannelID = &id
}

// Clone returns a copy that shares no pointers with gc
func (gc GuildConfig) Clone() GuildConfig {
	out := gc
	if gc.ArchiveChannelID != nil {
		id := *gc.ArchiveChannelID
		out.ArchiveChannelID = &id
	}
	return out
}
