package service

import (
	"context"
	"fmt"
	"strings"

	"linkkeeper/models"

	log "github.com/sirupsen/logrus"
)

// Discord rejects embed fields longer than this
const maxSummaryFieldLength = 1024

const summaryTitle = "New content shared"

// DispatchStatus is the terminal result of one dispatch
type DispatchStatus string

const (
	DispatchSucceeded DispatchStatus = "succeeded"
	DispatchFailed    DispatchStatus = "failed"
)

// DispatchOutcome reports what reached the archive channel. Uploaded and
// FailedUploads are only meaningful when the summary was delivered.
type DispatchOutcome struct {
	Status        DispatchStatus
	Uploaded      int
	FailedUploads int
	Err           error // Summary send error when Status is DispatchFailed
}

// Dispatcher delivers archive records to an archive channel. It never
// retries: each dispatch is attempted once.
type Dispatcher struct {
	sender ArchiveSender
}

// NewDispatcher creates a dispatcher that delivers through sender
func NewDispatcher(sender ArchiveSender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// Dispatch sends the summary of record to archiveChannelID and then
// re-uploads each attachment in order. A failed summary aborts the dispatch;
// a failed attachment is logged and skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, archiveChannelID int64, record models.ArchiveRecord) DispatchOutcome {
	logger := log.WithFields(log.Fields{
		"guild_id":           record.GuildID,
		"channel_id":         record.ChannelID,
		"message_id":         record.MessageID,
		"archive_channel_id": archiveChannelID,
		"permalink":          record.Permalink,
	})

	if err := d.sender.SendSummary(ctx, archiveChannelID, BuildSummary(record)); err != nil {
		logger.WithError(err).Error("Failed to send archive summary, message dropped from archive")
		return DispatchOutcome{
			Status: DispatchFailed,
			Err:    fmt.Errorf("failed to send archive summary: %w", err),
		}
	}

	outcome := DispatchOutcome{Status: DispatchSucceeded}
	for _, attachment := range record.Attachments {
		if err := d.sender.UploadAttachment(ctx, archiveChannelID, attachment); err != nil {
			logger.WithFields(log.Fields{
				"attachment_id": attachment.ID,
				"filename":      attachment.Filename,
				"error":         err,
			}).Warn("Failed to re-upload attachment, skipping")
			outcome.FailedUploads++
			continue
		}
		outcome.Uploaded++
	}

	logger.WithFields(log.Fields{
		"urls":           len(record.URLs),
		"uploaded":       outcome.Uploaded,
		"failed_uploads": outcome.FailedUploads,
	}).Info("Archived message")

	return outcome
}

// BuildSummary formats record as the single message posted to the archive
// channel. The URL and file fields are omitted when empty.
func BuildSummary(record models.ArchiveRecord) models.ArchiveSummary {
	fields := []models.SummaryField{
		{Name: "Sender", Value: fieldValue(record.SenderName), Inline: true},
		{Name: "Origin channel", Value: fieldValue(record.ChannelName), Inline: true},
	}

	if len(record.URLs) > 0 {
		fields = append(fields, models.SummaryField{
			Name:  "Shared URLs",
			Value: fieldValue(strings.Join(record.URLs, "\n")),
		})
	}
	if len(record.Attachments) > 0 {
		fields = append(fields, models.SummaryField{
			Name:  "Shared files",
			Value: fieldValue(strings.Join(record.Filenames(), "\n")),
		})
	}

	fields = append(fields, models.SummaryField{
		Name:  "Original message",
		Value: fieldValue(record.Permalink),
	})

	return models.ArchiveSummary{
		Title:      summaryTitle,
		Fields:     fields,
		CapturedAt: record.CapturedAt,
	}
}

// fieldValue fits value into an embed field. Empty values are rejected by
// Discord so they are replaced with a dash.
func fieldValue(value string) string {
	if value == "" {
		return "-"
	}
	runes := []rune(value)
	if len(runes) <= maxSummaryFieldLength {
		return value
	}
	return string(runes[:maxSummaryFieldLength-1]) + "…"
}
