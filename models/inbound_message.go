package models

import (
	"errors"
	"fmt"
)

// ErrInvalidMessage is returned when an inbound event is missing required fields
var ErrInvalidMessage = errors.New("invalid inbound message")

// ChannelInfo identifies a channel and carries what is needed to resolve its visibility
type ChannelInfo struct {
	ID       int64
	GuildID  int64
	ParentID int64 // Zero unless the channel is a thread
	Name     string
	IsThread bool
}

// InboundMessage is a message-received event, validated once at the gateway boundary
type InboundMessage struct {
	MessageID   int64
	GuildID     int64
	AuthorID    int64
	AuthorName  string // Display name as shown in the guild
	AuthorIsBot bool
	Channel     ChannelInfo
	Content     string
	Attachments []AttachmentRef
	Permalink   string
}

// Validate checks that the identifiers the pipeline depends on are present
func (m InboundMessage) Validate() error {
	switch {
	case m.MessageID <= 0:
		return fmt.Errorf("%w: missing message id", ErrInvalidMessage)
	case m.GuildID <= 0:
		return fmt.Errorf("%w: missing guild id", ErrInvalidMessage)
	case m.Channel.ID <= 0:
		return fmt.Errorf("%w: missing channel id", ErrInvalidMessage)
	case m.AuthorID <= 0:
		return fmt.Errorf("%w: missing author id", ErrInvalidMessage)
	}
	return nil
}
