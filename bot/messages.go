package bot

import (
	"fmt"

	"linkkeeper/bot/common"
	"linkkeeper/models"

	"github.com/bwmarrin/discordgo"
)

// toInboundMessage validates a gateway message once and converts it into the
// pipeline's representation. channel may be nil when it cannot be resolved.
func toInboundMessage(m *discordgo.Message, channel *discordgo.Channel) (models.InboundMessage, error) {
	if m == nil || m.Author == nil {
		return models.InboundMessage{}, fmt.Errorf("%w: missing author", models.ErrInvalidMessage)
	}

	messageID, err := common.ParseSnowflake(m.ID)
	if err != nil {
		return models.InboundMessage{}, fmt.Errorf("%w: %v", models.ErrInvalidMessage, err)
	}
	guildID, err := common.ParseSnowflake(m.GuildID)
	if err != nil {
		return models.InboundMessage{}, fmt.Errorf("%w: %v", models.ErrInvalidMessage, err)
	}
	channelID, err := common.ParseSnowflake(m.ChannelID)
	if err != nil {
		return models.InboundMessage{}, fmt.Errorf("%w: %v", models.ErrInvalidMessage, err)
	}
	authorID, err := common.ParseSnowflake(m.Author.ID)
	if err != nil {
		return models.InboundMessage{}, fmt.Errorf("%w: %v", models.ErrInvalidMessage, err)
	}

	info := models.ChannelInfo{
		ID:      channelID,
		GuildID: guildID,
		Name:    m.ChannelID,
	}
	if channel != nil {
		if channel.Name != "" {
			info.Name = channel.Name
		}
		if channel.IsThread() {
			info.IsThread = true
			if parentID, err := common.ParseSnowflake(channel.ParentID); err == nil {
				info.ParentID = parentID
			}
		}
	}

	attachments := make([]models.AttachmentRef, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		attachments = append(attachments, models.AttachmentRef{
			ID:          a.ID,
			Filename:    a.Filename,
			URL:         a.URL,
			ContentType: a.ContentType,
			Size:        a.Size,
		})
	}

	msg := models.InboundMessage{
		MessageID:   messageID,
		GuildID:     guildID,
		AuthorID:    authorID,
		AuthorName:  displayName(m),
		AuthorIsBot: m.Author.Bot,
		Channel:     info,
		Content:     m.Content,
		Attachments: attachments,
		Permalink:   common.MessageLink(m.GuildID, m.ChannelID, m.ID),
	}
	if err := msg.Validate(); err != nil {
		return models.InboundMessage{}, err
	}
	return msg, nil
}

// displayName returns the name the author is shown with in the guild
func displayName(m *discordgo.Message) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}
