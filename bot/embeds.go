package bot

import (
	"linkkeeper/bot/common"
	"linkkeeper/models"

	"github.com/bwmarrin/discordgo"
)

func helpEmbed(commands []*discordgo.ApplicationCommand) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(commands))
	for _, cmd := range commands {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "/" + cmd.Name,
			Value: cmd.Description,
		})
	}

	return &discordgo.MessageEmbed{
		Title:       "Commands",
		Description: "Links and files shared in this server are copied to the archive channel.",
		Color:       common.ColorInfo,
		Fields:      fields,
	}
}

func statusEmbed(botName string, config models.GuildConfig) *discordgo.MessageEmbed {
	archive := "Not set"
	monitoring := "Inactive"
	if config.HasArchiveChannel() {
		archive = common.ChannelMention(config.ArchiveChannel())
		monitoring = "Active"
	}

	privacy := "Public channels only"
	if config.ArchivePrivateChannels {
		privacy = "Public and private channels"
	}

	return &discordgo.MessageEmbed{
		Title: "Bot Status",
		Color: common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Bot name", Value: botName, Inline: true},
			{Name: "Archive channel", Value: archive, Inline: true},
			{Name: "Monitoring", Value: monitoring, Inline: true},
			{Name: "Privacy", Value: privacy, Inline: true},
		},
	}
}
