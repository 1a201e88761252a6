package bot

import (
	"testing"
	"time"

	"linkkeeper/bot/common"
	"linkkeeper/models"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusEmbed(t *testing.T) {
	channel := int64(77)

	tests := []struct {
		name           string
		config         models.GuildConfig
		wantArchive    string
		wantMonitoring string
		wantPrivacy    string
	}{
		{
			name:           "unconfigured",
			config:         models.DefaultGuildConfig(42),
			wantArchive:    "Not set",
			wantMonitoring: "Inactive",
			wantPrivacy:    "Public channels only",
		},
		{
			name:           "configured with private channels",
			config:         models.GuildConfig{GuildID: 42, ArchiveChannelID: &channel, ArchivePrivateChannels: true},
			wantArchive:    "<#77>",
			wantMonitoring: "Active",
			wantPrivacy:    "Public and private channels",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed := statusEmbed("linkkeeper", tt.config)

			require.Len(t, embed.Fields, 4)
			assert.Equal(t, "linkkeeper", embed.Fields[0].Value)
			assert.Equal(t, tt.wantArchive, embed.Fields[1].Value)
			assert.Equal(t, tt.wantMonitoring, embed.Fields[2].Value)
			assert.Equal(t, tt.wantPrivacy, embed.Fields[3].Value)
		})
	}
}

func TestHelpEmbed(t *testing.T) {
	embed := helpEmbed([]*discordgo.ApplicationCommand{
		{Name: commandHelp, Description: "Show the list of available commands"},
		{Name: commandStatus, Description: "Show the bot's current status"},
	})

	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "/help", embed.Fields[0].Name)
	assert.Equal(t, "/status", embed.Fields[1].Name)
	assert.Equal(t, common.ColorInfo, embed.Color)
}

func TestSummaryEmbed(t *testing.T) {
	captured := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	embed := summaryEmbed(models.ArchiveSummary{
		Title: "New content shared",
		Fields: []models.SummaryField{
			{Name: "Sender", Value: "ally", Inline: true},
			{Name: "Original message", Value: "check this"},
		},
		CapturedAt: captured,
	})

	assert.Equal(t, "New content shared", embed.Title)
	assert.Equal(t, "2024-03-01T12:00:00Z", embed.Timestamp)
	require.Len(t, embed.Fields, 2)
	assert.True(t, embed.Fields[0].Inline)
	assert.False(t, embed.Fields[1].Inline)
	assert.Equal(t, "check this", embed.Fields[1].Value)
}
