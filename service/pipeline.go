package service

import (
	"context"
	"time"

	"linkkeeper/events"
	"linkkeeper/models"

	log "github.com/sirupsen/logrus"
)

// PipelineState is the terminal state a message reached
type PipelineState string

const (
	StateExcluded   PipelineState = "excluded"
	StateEmpty      PipelineState = "empty"
	StateGatedOut   PipelineState = "gated_out"
	StateDispatched PipelineState = "dispatched"
)

// Exclusion reasons for StateExcluded
const (
	ReasonInvalid      = "invalid"
	ReasonSelf         = "self"
	ReasonArchiveLoop  = "archive-loop"
	ReasonUnconfigured = "unconfigured"
)

// PipelineResult describes how a single message was handled
type PipelineResult struct {
	State   PipelineState
	Reason  string          // Set for StateExcluded
	Outcome DispatchOutcome // Set for StateDispatched
}

// Pipeline routes each inbound message through classification, the privacy
// gate and dispatch. Every message traverses it exactly once.
type Pipeline struct {
	botUserID  int64
	settings   GuildConfigReader
	gate       *PrivacyGate
	dispatcher *Dispatcher
	emitter    EventEmitter
	now        func() time.Time
}

// NewPipeline creates a pipeline. botUserID identifies messages the bot
// authored itself. emitter may be nil.
func NewPipeline(botUserID int64, settings GuildConfigReader, gate *PrivacyGate, dispatcher *Dispatcher, emitter EventEmitter) *Pipeline {
	return &Pipeline{
		botUserID:  botUserID,
		settings:   settings,
		gate:       gate,
		dispatcher: dispatcher,
		emitter:    emitter,
		now:        time.Now,
	}
}

// Process handles one inbound message and returns its terminal state
func (p *Pipeline) Process(ctx context.Context, msg models.InboundMessage) PipelineResult {
	if err := msg.Validate(); err != nil {
		log.WithError(err).Warn("Dropping inbound message")
		return excluded(ReasonInvalid)
	}
	if msg.AuthorID == p.botUserID {
		return excluded(ReasonSelf)
	}

	config := p.settings.Get(msg.GuildID)
	if !config.HasArchiveChannel() {
		return excluded(ReasonUnconfigured)
	}
	if config.IsArchiveChannel(msg.Channel.ID) || (msg.Channel.IsThread && config.IsArchiveChannel(msg.Channel.ParentID)) {
		return excluded(ReasonArchiveLoop)
	}

	extraction := Classify(msg.Content, msg.Attachments)
	if extraction.IsEmpty() {
		return PipelineResult{State: StateEmpty}
	}

	if !p.gate.ShouldArchive(ctx, msg.Channel, config) {
		log.WithFields(log.Fields{
			"guild_id":   msg.GuildID,
			"channel_id": msg.Channel.ID,
			"message_id": msg.MessageID,
		}).Debug("Skipping content from private channel")
		return PipelineResult{State: StateGatedOut}
	}

	record := models.ArchiveRecord{
		GuildID:     msg.GuildID,
		ChannelID:   msg.Channel.ID,
		MessageID:   msg.MessageID,
		SenderName:  msg.AuthorName,
		ChannelName: msg.Channel.Name,
		URLs:        extraction.URLs,
		Attachments: extraction.Attachments,
		Permalink:   msg.Permalink,
		CapturedAt:  p.now().UTC(),
	}

	archiveChannelID := config.ArchiveChannel()
	outcome := p.dispatcher.Dispatch(ctx, archiveChannelID, record)
	p.emitOutcome(ctx, archiveChannelID, record, outcome)

	return PipelineResult{State: StateDispatched, Outcome: outcome}
}

func (p *Pipeline) emitOutcome(ctx context.Context, archiveChannelID int64, record models.ArchiveRecord, outcome DispatchOutcome) {
	if p.emitter == nil {
		return
	}

	if outcome.Status == DispatchFailed {
		reason := ""
		if outcome.Err != nil {
			reason = outcome.Err.Error()
		}
		p.emitter.Emit(ctx, events.ArchiveFailedEvent{
			GuildID:          record.GuildID,
			SourceChannelID:  record.ChannelID,
			MessageID:        record.MessageID,
			ArchiveChannelID: archiveChannelID,
			Permalink:        record.Permalink,
			Reason:           reason,
			CapturedAt:       record.CapturedAt,
		})
		return
	}

	p.emitter.Emit(ctx, events.ArchiveDispatchedEvent{
		GuildID:             record.GuildID,
		SourceChannelID:     record.ChannelID,
		MessageID:           record.MessageID,
		ArchiveChannelID:    archiveChannelID,
		Permalink:           record.Permalink,
		URLCount:            len(record.URLs),
		AttachmentsUploaded: outcome.Uploaded,
		AttachmentsFailed:   outcome.FailedUploads,
		CapturedAt:          record.CapturedAt,
	})
}

func excluded(reason string) PipelineResult {
	return PipelineResult{State: StateExcluded, Reason: reason}
}
