package settings

import (
	"context"

	"linkkeeper/models"

	"github.com/bwmarrin/discordgo"
)

// Command names handled by this feature
const (
	CommandSetArchiveChannel  = "set_archive_channel"
	CommandSetArchivePrivacy  = "set_archive_privacy"
	CommandShowArchiveChannel = "show_archive_channel"
)

// Store is the part of the settings store the commands use
type Store interface {
	Get(guildID int64) models.GuildConfig
	SetArchiveChannel(ctx context.Context, guildID int64, channelID *int64) (models.GuildConfig, error)
	SetPrivacyPolicy(ctx context.Context, guildID int64, archivePrivate bool) (models.GuildConfig, error)
}

// Feature handles archive settings commands
type Feature struct {
	store Store
}

// NewFeature creates a new settings feature instance
func NewFeature(store Store) *Feature {
	return &Feature{
		store: store,
	}
}

// Commands returns the slash command definitions of this feature
func (f *Feature) Commands() []*discordgo.ApplicationCommand {
	manage := int64(discordgo.PermissionManageChannels)

	return []*discordgo.ApplicationCommand{
		{
			Name:                     CommandSetArchiveChannel,
			Description:              "Set the channel shared links and files are archived to",
			DefaultMemberPermissions: &manage,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "The archive channel (leave empty to stop archiving)",
					Required:     false,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
				},
			},
		},
		{
			Name:                     CommandSetArchivePrivacy,
			Description:              "Choose whether content from private channels is archived",
			DefaultMemberPermissions: &manage,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "include_private",
					Description: "Archive content from channels @everyone cannot see",
					Required:    true,
				},
			},
		},
		{
			Name:        CommandShowArchiveChannel,
			Description: "Show the current archive channel",
		},
	}
}

// HandleCommand routes settings commands to appropriate handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case CommandSetArchiveChannel:
		f.handleSetArchiveChannel(s, i)
	case CommandSetArchivePrivacy:
		f.handleSetArchivePrivacy(s, i)
	case CommandShowArchiveChannel:
		f.handleShowArchiveChannel(s, i)
	}
}
