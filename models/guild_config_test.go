package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuildConfig_ArchiveChannel(t *testing.T) {
	seven := int64(7)
	zero := int64(0)

	tests := []struct {
		name        string
		config      GuildConfig
		wantHas     bool
		wantChannel int64
		wantDefault bool
	}{
		{name: "default", config: DefaultGuildConfig(42), wantDefault: true},
		{name: "configured", config: GuildConfig{GuildID: 42, ArchiveChannelID: &seven}, wantHas: true, wantChannel: 7},
		{name: "zero channel counts as none", config: GuildConfig{GuildID: 42, ArchiveChannelID: &zero}, wantDefault: true},
		{name: "privacy only", config: GuildConfig{GuildID: 42, ArchivePrivateChannels: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantHas, tt.config.HasArchiveChannel())
			assert.Equal(t, tt.wantChannel, tt.config.ArchiveChannel())
			assert.Equal(t, tt.wantDefault, tt.config.IsDefault())
		})
	}
}

func TestGuildConfig_IsArchiveChannel(t *testing.T) {
	seven := int64(7)
	config := GuildConfig{GuildID: 42, ArchiveChannelID: &seven}

	assert.True(t, config.IsArchiveChannel(7))
	assert.False(t, config.IsArchiveChannel(3))
	assert.False(t, DefaultGuildConfig(42).IsArchiveChannel(0))
}

func TestGuildConfig_SetArchiveChannel(t *testing.T) {
	var config GuildConfig

	id := int64(7)
	config.SetArchiveChannel(&id)
	id = 8
	assert.Equal(t, int64(7), config.ArchiveChannel(), "setter must copy the value")

	negative := int64(-1)
	config.SetArchiveChannel(&negative)
	assert.Nil(t, config.ArchiveChannelID)

	config.SetArchiveChannel(&id)
	config.SetArchiveChannel(nil)
	assert.Nil(t, config.ArchiveChannelID)
}

func TestGuildConfig_Clone(t *testing.T) {
	seven := int64(7)
	original := GuildConfig{GuildID: 42, ArchiveChannelID: &seven, ArchivePrivateChannels: true}

	clone := original.Clone()
	*clone.ArchiveChannelID = 9

	assert.Equal(t, int64(7), original.ArchiveChannel())
	assert.True(t, clone.ArchivePrivateChannels)
}

func TestInboundMessage_Validate(t *testing.T) {
	valid := InboundMessage{
		MessageID: 1,
		GuildID:   2,
		AuthorID:  3,
		Channel:   ChannelInfo{ID: 4, GuildID: 2},
	}

	tests := []struct {
		name    string
		mutate  func(m *InboundMessage)
		wantErr bool
	}{
		{name: "valid", mutate: func(m *InboundMessage) {}},
		{name: "missing message", mutate: func(m *InboundMessage) { m.MessageID = 0 }, wantErr: true},
		{name: "missing guild", mutate: func(m *InboundMessage) { m.GuildID = 0 }, wantErr: true},
		{name: "missing channel", mutate: func(m *InboundMessage) { m.Channel.ID = 0 }, wantErr: true},
		{name: "missing author", mutate: func(m *InboundMessage) { m.AuthorID = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)

			err := m.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMessage)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestArchiveRecord_Filenames(t *testing.T) {
	record := ArchiveRecord{Attachments: []AttachmentRef{{Filename: "a.png"}, {Filename: "b.pdf"}}}
	assert.Equal(t, []string{"a.png", "b.pdf"}, record.Filenames())
	assert.Empty(t, ArchiveRecord{}.Filenames())
}
