package common

import (
	"github.com/bwmarrin/discordgo"
)

// ManageArchivePermissions are the permissions that allow changing archive settings
const ManageArchivePermissions = int64(discordgo.PermissionManageChannels | discordgo.PermissionAdministrator)

// CanManageArchive reports whether the member invoking the interaction may
// change archive settings. Discord resolves the member's permissions in the
// interaction payload.
func CanManageArchive(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&ManageArchivePermissions != 0
}

// EveryonePermissions applies a channel's overwrite for the guild's default
// role to the role's base permissions. The default role shares its ID with
// the guild. Administrator grants everything.
func EveryonePermissions(guildID string, base int64, overwrites []*discordgo.PermissionOverwrite) int64 {
	if base&discordgo.PermissionAdministrator != 0 {
		return discordgo.PermissionAll
	}

	perms := base
	for _, overwrite := range overwrites {
		if overwrite == nil || overwrite.Type != discordgo.PermissionOverwriteTypeRole || overwrite.ID != guildID {
			continue
		}
		perms &^= overwrite.Deny
		perms |= overwrite.Allow
	}
	return perms
}
