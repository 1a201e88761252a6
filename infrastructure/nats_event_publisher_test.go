package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"linkkeeper/events"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMessagePublisher struct {
	mock.Mock
}

func (m *mockMessagePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func TestEventSubjectMapper(t *testing.T) {
	mapper := NewEventSubjectMapper()

	tests := []struct {
		event    events.Event
		expected string
	}{
		{event: events.ArchiveDispatchedEvent{}, expected: "archive.dispatched"},
		{event: events.ArchiveFailedEvent{}, expected: "archive.failed"},
		{event: events.GuildSettingsChangedEvent{}, expected: "settings.changed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.event.Type()), func(t *testing.T) {
			subject := mapper.MapEventToSubject(tt.event)
			assert.Equal(t, tt.expected, subject)
			assert.Contains(t, mapper.GetAllSubjects(), subject)
		})
	}
}

func TestNATSEventPublisher_Envelope(t *testing.T) {
	var published []byte
	publisher := new(mockMessagePublisher)
	publisher.On("Publish", mock.Anything, "archive.failed", mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(2).([]byte)
		}).
		Return(nil)

	p := NewNATSEventPublisher(publisher, NewEventSubjectMapper())
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	event := events.ArchiveFailedEvent{
		GuildID:          42,
		SourceChannelID:  3,
		MessageID:        1001,
		ArchiveChannelID: 7,
		Permalink:        "https://discord.com/channels/42/3/1001",
		Reason:           "missing access",
	}
	require.NoError(t, p.Publish(context.Background(), event))

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(published, &envelope))

	_, err := uuid.Parse(envelope.EventID)
	assert.NoError(t, err)
	assert.Equal(t, "archive_failed", envelope.EventType)
	assert.Equal(t, "linkkeeper", envelope.SourceService)
	assert.True(t, fixed.Equal(envelope.Timestamp))

	var payload events.ArchiveFailedEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event.Permalink, payload.Permalink)
	assert.Equal(t, event.Reason, payload.Reason)

	publisher.AssertExpectations(t)
}

func TestNATSEventPublisher_PublishErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
		wantLog bool
	}{
		{name: "missing stream is logged and ignored", err: errors.New("nats: no response from stream"), wantLog: true},
		{name: "other errors are returned", err: errors.New("nats: connection closed"), wantErr: true},
	}

	hook := logtest.NewGlobal()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()
			publisher := new(mockMessagePublisher)
			publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(tt.err)

			p := NewNATSEventPublisher(publisher, NewEventSubjectMapper())
			err := p.Publish(context.Background(), events.ArchiveFailedEvent{
				GuildID:   42,
				MessageID: 1001,
				Permalink: "https://discord.com/channels/42/3/1001",
			})

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			if !tt.wantLog {
				assert.Nil(t, hook.LastEntry())
				return
			}
			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, logrus.WarnLevel, entry.Level)
			assert.Equal(t, events.EventTypeArchiveFailed, entry.Data["eventType"])
			assert.Contains(t, entry.Data["payload"], "https://discord.com/channels/42/3/1001")
		})
	}
}

func TestNATSEventPublisher_Forward(t *testing.T) {
	publisher := new(mockMessagePublisher)
	publisher.On("Publish", mock.Anything, "archive.dispatched", mock.Anything).Return(nil).Once()
	publisher.On("Publish", mock.Anything, "settings.changed", mock.Anything).Return(errors.New("boom")).Once()

	bus := events.NewBus()
	NewNATSEventPublisher(publisher, NewEventSubjectMapper()).Forward(bus)

	bus.Emit(context.Background(), events.ArchiveDispatchedEvent{GuildID: 42})
	bus.Emit(context.Background(), events.GuildSettingsChangedEvent{GuildID: 42})
	bus.Wait()

	publisher.AssertExpectations(t)
}

func TestNATSClient_IsMessagePublisher(t *testing.T) {
	assert.Implements(t, (*MessagePublisher)(nil), NewNATSClient("nats://localhost:4222"))
}
