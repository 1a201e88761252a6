package settings

import (
	"context"
	"errors"
	"fmt"

	"linkkeeper/bot/common"
	"linkkeeper/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// reply is the outcome of a settings command, independent of how it is sent
type reply struct {
	content string
	warning bool // The change applied in memory but was not persisted
	info    bool // Read-only answer, shown to the whole channel
}

// handleSetArchiveChannel handles the /set_archive_channel command
func (f *Feature) handleSetArchiveChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, err := f.authorize(i)
	if err != nil {
		common.HandleError(s, i, err)
		return
	}

	var channelID *int64
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name != "channel" {
			continue
		}
		id, err := common.ParseSnowflake(opt.ChannelValue(nil).ID)
		if err != nil {
			common.HandleError(s, i, common.NewUserError("Invalid channel selected", "Failed to parse channel option"))
			return
		}
		channelID = &id
	}

	r, err := f.setArchiveChannel(context.Background(), guildID, channelID)
	if err != nil {
		common.HandleError(s, i, err)
		return
	}
	f.respond(s, i, r)
}

// handleSetArchivePrivacy handles the /set_archive_privacy command
func (f *Feature) handleSetArchivePrivacy(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, err := f.authorize(i)
	if err != nil {
		common.HandleError(s, i, err)
		return
	}

	var includePrivate bool
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "include_private" {
			includePrivate = opt.BoolValue()
		}
	}

	r, err := f.setPrivacy(context.Background(), guildID, includePrivate)
	if err != nil {
		common.HandleError(s, i, err)
		return
	}
	f.respond(s, i, r)
}

// handleShowArchiveChannel handles the /show_archive_channel command
func (f *Feature) handleShowArchiveChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, err := common.ParseSnowflake(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewUserError("This command can only be used in a server", "Show archive channel outside a guild"))
		return
	}

	f.respond(s, i, f.describe(guildID))
}

// authorize checks the invoking member may change settings and returns the guild
func (f *Feature) authorize(i *discordgo.InteractionCreate) (int64, error) {
	guildID, err := common.ParseSnowflake(i.GuildID)
	if err != nil {
		return 0, common.NewUserError("This command can only be used in a server", "Settings command outside a guild")
	}
	if !common.CanManageArchive(i) {
		return 0, common.NewUserError(
			"You need the Manage Channels permission to change archive settings",
			"Settings command without permission",
		)
	}
	return guildID, nil
}

func (f *Feature) setArchiveChannel(ctx context.Context, guildID int64, channelID *int64) (reply, error) {
	config, err := f.store.SetArchiveChannel(ctx, guildID, channelID)

	var content string
	if config.HasArchiveChannel() {
		content = fmt.Sprintf("Archive channel set to %s", common.ChannelMention(config.ArchiveChannel()))
	} else {
		content = "Archiving disabled for this server"
	}
	return persistReply(content, err)
}

func (f *Feature) setPrivacy(ctx context.Context, guildID int64, includePrivate bool) (reply, error) {
	_, err := f.store.SetPrivacyPolicy(ctx, guildID, includePrivate)

	content := "Content from private channels will not be archived"
	if includePrivate {
		content = "Content from private channels will be archived"
	}
	return persistReply(content, err)
}

func (f *Feature) describe(guildID int64) reply {
	config := f.store.Get(guildID)
	if !config.HasArchiveChannel() {
		return reply{content: "No archive channel is set. Use /set_archive_channel to choose one.", info: true}
	}
	return reply{
		content: fmt.Sprintf("Current archive channel: %s (ID: %d)",
			common.ChannelMention(config.ArchiveChannel()), config.ArchiveChannel()),
		info: true,
	}
}

// persistReply turns a store error into a reply. A persist failure still
// reports the change since it applies for the rest of the session.
func persistReply(content string, err error) (reply, error) {
	switch {
	case err == nil:
		return reply{content: content}, nil
	case errors.Is(err, service.ErrPersistFailed):
		return reply{content: fmt.Sprintf("%s: %s", content, common.PersistFailedMessage), warning: true}, nil
	default:
		return reply{}, common.NewSystemError(err, "Failed to update archive settings")
	}
}

func (f *Feature) respond(s *discordgo.Session, i *discordgo.InteractionCreate, r reply) {
	var err error
	switch {
	case r.info:
		err = common.RespondWithMessage(s, i, r.content, false)
	case r.warning:
		err = common.RespondWithWarning(s, i, r.content, true)
	default:
		err = common.RespondWithSuccess(s, i, r.content, true)
	}
	if err != nil {
		log.WithFields(log.Fields{
			"guild_id": i.GuildID,
			"error":    err,
		}).Error("Failed to respond to interaction")
	}
}

var _ Store = (*service.SettingsStore)(nil)
