package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeArchiveDispatched    EventType = "archive_dispatched"
	EventTypeArchiveFailed        EventType = "archive_failed"
	EventTypeGuildSettingsChanged EventType = "guild_settings_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// ArchiveDispatchedEvent is emitted after a summary reached the archive channel
type ArchiveDispatchedEvent struct {
	GuildID             int64     `json:"guild_id"`
	SourceChannelID     int64     `json:"source_channel_id"`
	MessageID           int64     `json:"message_id"`
	ArchiveChannelID    int64     `json:"archive_channel_id"`
	Permalink           string    `json:"permalink"`
	URLCount            int       `json:"url_count"`
	AttachmentsUploaded int       `json:"attachments_uploaded"`
	AttachmentsFailed   int       `json:"attachments_failed"`
	CapturedAt          time.Time `json:"captured_at"`
}

func (e ArchiveDispatchedEvent) Type() EventType {
	return EventTypeArchiveDispatched
}

// ArchiveFailedEvent is emitted when a message was dropped from archival.
// It carries enough context to recover the message by hand.
type ArchiveFailedEvent struct {
	GuildID          int64     `json:"guild_id"`
	SourceChannelID  int64     `json:"source_channel_id"`
	MessageID        int64     `json:"message_id"`
	ArchiveChannelID int64     `json:"archive_channel_id"`
	Permalink        string    `json:"permalink"`
	Reason           string    `json:"reason"`
	CapturedAt       time.Time `json:"captured_at"`
}

func (e ArchiveFailedEvent) Type() EventType {
	return EventTypeArchiveFailed
}

// GuildSettingsChangedEvent is emitted after every configuration mutation
type GuildSettingsChangedEvent struct {
	GuildID                int64  `json:"guild_id"`
	ArchiveChannelID       *int64 `json:"archive_channel_id,omitempty"`
	ArchivePrivateChannels bool   `json:"archive_private"`
	Persisted              bool   `json:"persisted"`
}

func (e GuildSettingsChangedEvent) Type() EventType {
	return EventTypeGuildSettingsChanged
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers. Handlers run
// asynchronously; a panicking handler is logged and does not affect others.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started by Emit has returned
func (b *Bus) Wait() {
	b.inflight.Wait()
}
