package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"linkkeeper/events"
	"linkkeeper/models"
	"linkkeeper/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testBotUserID = int64(500)

type pipelineFixture struct {
	pipeline *Pipeline
	store    *SettingsStore
	resolver *testhelpers.MockPermissionResolver
	sender   *testhelpers.MockArchiveSender
	emitter  *testhelpers.MockEventEmitter
}

func newPipelineFixture(t *testing.T, configs map[int64]models.GuildConfig) *pipelineFixture {
	t.Helper()

	store := NewSettingsStore(testhelpers.NewMemorySettingsPersister(configs), nil)
	store.Load(context.Background())

	f := &pipelineFixture{
		store:    store,
		resolver: new(testhelpers.MockPermissionResolver),
		sender:   new(testhelpers.MockArchiveSender),
		emitter:  new(testhelpers.MockEventEmitter),
	}
	f.pipeline = NewPipeline(testBotUserID, store, NewPrivacyGate(f.resolver), NewDispatcher(f.sender), f.emitter)
	f.pipeline.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func guild42() map[int64]models.GuildConfig {
	return map[int64]models.GuildConfig{
		42: {ArchiveChannelID: int64Ptr(7), ArchivePrivateChannels: false},
	}
}

func inbound(channelID int64, content string, attachments ...models.AttachmentRef) models.InboundMessage {
	return models.InboundMessage{
		MessageID:   1001,
		GuildID:     42,
		AuthorID:    100,
		AuthorName:  "alice",
		Channel:     models.ChannelInfo{ID: channelID, GuildID: 42, Name: "general"},
		Content:     content,
		Attachments: attachments,
		Permalink:   "https://discord.com/channels/42/3/1001",
	}
}

func TestPipeline_ArchivesPublicMessage(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, guild42())
	msg := inbound(3, "check https://example.com/x and https://tenor.com/view/abc")

	var sent []models.ArchiveSummary
	f.resolver.On("EveryonePermissions", mock.Anything, msg.Channel).Return(publicPerms, nil)
	f.sender.On("SendSummary", mock.Anything, int64(7), mock.Anything).
		Run(func(args mock.Arguments) {
			sent = append(sent, args.Get(2).(models.ArchiveSummary))
		}).
		Return(nil)
	f.emitter.On("Emit", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		dispatched, ok := e.(events.ArchiveDispatchedEvent)
		return ok && dispatched.GuildID == 42 && dispatched.ArchiveChannelID == 7 && dispatched.URLCount == 1
	})).Once()

	result := f.pipeline.Process(context.Background(), msg)

	assert.Equal(t, StateDispatched, result.State)
	assert.Equal(t, DispatchSucceeded, result.Outcome.Status)
	require.Len(t, sent, 1)

	var urls string
	for _, field := range sent[0].Fields {
		if field.Name == "Shared URLs" {
			urls = field.Value
		}
	}
	assert.Equal(t, "https://example.com/x", urls)

	f.sender.AssertNotCalled(t, "UploadAttachment", mock.Anything, mock.Anything, mock.Anything)
	f.sender.AssertExpectations(t)
	f.emitter.AssertExpectations(t)
}

func TestPipeline_Exclusions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		configs map[int64]models.GuildConfig
		msg     func() models.InboundMessage
		reason  string
	}{
		{
			name:    "message inside the archive channel",
			configs: guild42(),
			msg: func() models.InboundMessage {
				return inbound(7, "https://example.com/x", models.AttachmentRef{ID: "1", Filename: "a.png"})
			},
			reason: ReasonArchiveLoop,
		},
		{
			name:    "thread under the archive channel",
			configs: guild42(),
			msg: func() models.InboundMessage {
				m := inbound(8, "https://example.com/x")
				m.Channel.IsThread = true
				m.Channel.ParentID = 7
				return m
			},
			reason: ReasonArchiveLoop,
		},
		{
			name:    "guild without archive channel",
			configs: map[int64]models.GuildConfig{},
			msg: func() models.InboundMessage {
				return inbound(3, "https://example.com/x", models.AttachmentRef{ID: "1", Filename: "a.png"})
			},
			reason: ReasonUnconfigured,
		},
		{
			name:    "guild with privacy policy but no channel",
			configs: map[int64]models.GuildConfig{42: {ArchivePrivateChannels: true}},
			msg: func() models.InboundMessage {
				return inbound(3, "https://example.com/x")
			},
			reason: ReasonUnconfigured,
		},
		{
			name:    "message from the bot itself",
			configs: guild42(),
			msg: func() models.InboundMessage {
				m := inbound(3, "https://example.com/x")
				m.AuthorID = testBotUserID
				return m
			},
			reason: ReasonSelf,
		},
		{
			name:    "message without guild",
			configs: guild42(),
			msg: func() models.InboundMessage {
				m := inbound(3, "https://example.com/x")
				m.GuildID = 0
				return m
			},
			reason: ReasonInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newPipelineFixture(t, tt.configs)
			result := f.pipeline.Process(context.Background(), tt.msg())

			assert.Equal(t, StateExcluded, result.State)
			assert.Equal(t, tt.reason, result.Reason)
			f.resolver.AssertNotCalled(t, "EveryonePermissions", mock.Anything, mock.Anything)
			f.sender.AssertNotCalled(t, "SendSummary", mock.Anything, mock.Anything, mock.Anything)
			f.sender.AssertNotCalled(t, "UploadAttachment", mock.Anything, mock.Anything, mock.Anything)
			f.emitter.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything)
		})
	}
}

func TestPipeline_EmptyMessage(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, guild42())
	result := f.pipeline.Process(context.Background(), inbound(3, "just chatting https://tenor.com/view/abc"))

	assert.Equal(t, StateEmpty, result.State)
	f.resolver.AssertNotCalled(t, "EveryonePermissions", mock.Anything, mock.Anything)
	f.sender.AssertNotCalled(t, "SendSummary", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_PrivateChannel(t *testing.T) {
	t.Parallel()

	t.Run("gated out when guild excludes private channels", func(t *testing.T) {
		t.Parallel()

		f := newPipelineFixture(t, guild42())
		msg := inbound(3, "https://example.com/x")
		f.resolver.On("EveryonePermissions", mock.Anything, msg.Channel).Return(privatePerms, nil)

		result := f.pipeline.Process(context.Background(), msg)

		assert.Equal(t, StateGatedOut, result.State)
		f.sender.AssertNotCalled(t, "SendSummary", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("archived when guild opted in", func(t *testing.T) {
		t.Parallel()

		f := newPipelineFixture(t, map[int64]models.GuildConfig{
			42: {ArchiveChannelID: int64Ptr(7), ArchivePrivateChannels: true},
		})
		msg := inbound(3, "https://example.com/x")
		f.resolver.On("EveryonePermissions", mock.Anything, msg.Channel).Return(privatePerms, nil).Maybe()
		f.sender.On("SendSummary", mock.Anything, int64(7), mock.Anything).Return(nil)
		f.emitter.On("Emit", mock.Anything, mock.Anything)

		result := f.pipeline.Process(context.Background(), msg)

		assert.Equal(t, StateDispatched, result.State)
		f.sender.AssertExpectations(t)
	})
}

func TestPipeline_DispatchFailureEmitsFailedEvent(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, guild42())
	msg := inbound(3, "https://example.com/x", models.AttachmentRef{ID: "1", Filename: "a.png"})

	f.resolver.On("EveryonePermissions", mock.Anything, msg.Channel).Return(publicPerms, nil)
	f.sender.On("SendSummary", mock.Anything, int64(7), mock.Anything).Return(errors.New("unknown channel"))
	f.emitter.On("Emit", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		failed, ok := e.(events.ArchiveFailedEvent)
		return ok && failed.Permalink == msg.Permalink && failed.MessageID == 1001 && failed.Reason != ""
	})).Once()

	result := f.pipeline.Process(context.Background(), msg)

	assert.Equal(t, StateDispatched, result.State)
	assert.Equal(t, DispatchFailed, result.Outcome.Status)
	f.sender.AssertNotCalled(t, "UploadAttachment", mock.Anything, mock.Anything, mock.Anything)
	f.emitter.AssertExpectations(t)

	// Delivery failures leave the configuration alone
	assert.Equal(t, int64(7), f.store.Get(42).ArchiveChannel())
}
