package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"linkkeeper/bot/common"
	"linkkeeper/models"

	"github.com/bwmarrin/discordgo"
)

// Gateway adapts a discordgo session to the archive pipeline's collaborators
type Gateway struct {
	session *discordgo.Session
}

// NewGateway creates a gateway over session
func NewGateway(session *discordgo.Session) *Gateway {
	return &Gateway{session: session}
}

// SendSummary posts the archive summary as a single embed
func (g *Gateway) SendSummary(ctx context.Context, channelID int64, summary models.ArchiveSummary) error {
	_, err := g.session.ChannelMessageSendEmbed(common.FormatSnowflake(channelID), summaryEmbed(summary), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send summary to channel %d: %w", channelID, err)
	}
	return nil
}

// UploadAttachment downloads the attachment from its CDN URL and re-sends it
// to the archive channel as a file
func (g *Gateway) UploadAttachment(ctx context.Context, channelID int64, attachment models.AttachmentRef) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, attachment.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request for %s: %w", attachment.Filename, err)
	}

	resp, err := g.session.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", attachment.Filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("failed to download %s: unexpected status %s", attachment.Filename, resp.Status)
	}

	_, err = g.session.ChannelMessageSendComplex(common.FormatSnowflake(channelID), &discordgo.MessageSend{
		Files: []*discordgo.File{{
			Name:        attachment.Filename,
			ContentType: attachment.ContentType,
			Reader:      resp.Body,
		}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to upload %s to channel %d: %w", attachment.Filename, channelID, err)
	}
	return nil
}

// EveryonePermissions resolves the permissions the guild's default role has
// on channel. Threads inherit the visibility of their parent channel.
func (g *Gateway) EveryonePermissions(ctx context.Context, channel models.ChannelInfo) (int64, error) {
	channelID := channel.ID
	if channel.IsThread && channel.ParentID != 0 {
		channelID = channel.ParentID
	}

	ch, err := g.channel(ctx, common.FormatSnowflake(channelID))
	if err != nil {
		return 0, err
	}
	if ch.IsThread() && ch.ParentID != "" {
		if ch, err = g.channel(ctx, ch.ParentID); err != nil {
			return 0, err
		}
	}

	guildID := common.FormatSnowflake(channel.GuildID)
	base, err := g.everyoneRolePermissions(ctx, guildID)
	if err != nil {
		return 0, err
	}

	return common.EveryonePermissions(guildID, base, ch.PermissionOverwrites), nil
}

// channel reads a channel from the state cache, falling back to the API
func (g *Gateway) channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if g.session.State != nil {
		if ch, err := g.session.State.Channel(channelID); err == nil {
			return ch, nil
		}
	}

	ch, err := g.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel %s: %w", channelID, err)
	}
	return ch, nil
}

// everyoneRolePermissions returns the base permissions of the guild's default role
func (g *Gateway) everyoneRolePermissions(ctx context.Context, guildID string) (int64, error) {
	if g.session.State != nil {
		if role, err := g.session.State.Role(guildID, guildID); err == nil {
			return role.Permissions, nil
		}
	}

	roles, err := g.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to fetch roles for guild %s: %w", guildID, err)
	}
	for _, role := range roles {
		if role.ID == guildID {
			return role.Permissions, nil
		}
	}
	return 0, fmt.Errorf("guild %s has no default role", guildID)
}

// summaryEmbed renders an archive summary as a Discord embed
func summaryEmbed(summary models.ArchiveSummary) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(summary.Fields))
	for _, f := range summary.Fields {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}

	return &discordgo.MessageEmbed{
		Title:     summary.Title,
		Color:     common.ColorInfo,
		Fields:    fields,
		Timestamp: summary.CapturedAt.Format(time.RFC3339),
	}
}
