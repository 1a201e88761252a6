package service

import (
	"context"

	"linkkeeper/events"
	"linkkeeper/models"
)

// SettingsPersister defines durable storage for the guild settings mapping
type SettingsPersister interface {
	// Load reads the whole mapping. A missing backing store yields an empty mapping.
	Load(ctx context.Context) (map[int64]models.GuildConfig, error)

	// Save atomically replaces the stored mapping
	Save(ctx context.Context, configs map[int64]models.GuildConfig) error

	// Name identifies the backend in logs
	Name() string
}

// GuildConfigReader is the read side of the settings store
type GuildConfigReader interface {
	Get(guildID int64) models.GuildConfig
}

// PermissionResolver resolves the permissions the guild's default role has
// on a channel after per-channel overrides are applied.
type PermissionResolver interface {
	EveryonePermissions(ctx context.Context, channel models.ChannelInfo) (int64, error)
}

// ArchiveSender delivers content to an archive channel
type ArchiveSender interface {
	// SendSummary posts the formatted summary as a single message
	SendSummary(ctx context.Context, channelID int64, summary models.ArchiveSummary) error

	// UploadAttachment re-uploads one attachment to the channel
	UploadAttachment(ctx context.Context, channelID int64, attachment models.AttachmentRef) error
}

// EventEmitter publishes domain events
type EventEmitter interface {
	Emit(ctx context.Context, event events.Event)
}
