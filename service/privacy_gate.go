package service

import (
	"context"

	"linkkeeper/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// PrivacyGate decides whether content from a channel may be archived
type PrivacyGate struct {
	resolver PermissionResolver
}

// NewPrivacyGate creates a gate that resolves channel visibility through resolver
func NewPrivacyGate(resolver PermissionResolver) *PrivacyGate {
	return &PrivacyGate{resolver: resolver}
}

// IsPrivate reports whether the guild's default role cannot view the channel.
// A channel whose permissions cannot be resolved is treated as private.
func (g *PrivacyGate) IsPrivate(ctx context.Context, channel models.ChannelInfo) bool {
	perms, err := g.resolver.EveryonePermissions(ctx, channel)
	if err != nil {
		log.WithFields(log.Fields{
			"guild_id":   channel.GuildID,
			"channel_id": channel.ID,
			"error":      err,
		}).Warn("Failed to resolve channel permissions, treating channel as private")
		return true
	}

	if perms&discordgo.PermissionAdministrator != 0 {
		return false
	}
	return perms&discordgo.PermissionViewChannel == 0
}

// ShouldArchive reports whether content from channel may be archived under
// the guild's policy. Public channels are always eligible; private channels
// only when the guild opted in.
func (g *PrivacyGate) ShouldArchive(ctx context.Context, channel models.ChannelInfo, config models.GuildConfig) bool {
	if config.ArchivePrivateChannels {
		return true
	}
	return !g.IsPrivate(ctx, channel)
}
