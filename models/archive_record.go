package models

import "time"

// AttachmentRef describes a file attached to a message. The URL is where the
// file content can be fetched from; nothing about the content is inspected.
type AttachmentRef struct {
	ID          string
	Filename    string
	URL         string
	ContentType string
	Size        int
}

// ContentExtraction is the result of classifying a message
type ContentExtraction struct {
	URLs        []string
	Attachments []AttachmentRef
}

// IsEmpty reports whether there is nothing to archive
func (ce ContentExtraction) IsEmpty() bool {
	return len(ce.URLs) == 0 && len(ce.Attachments) == 0
}

// ArchiveRecord is built for each qualifying message and lives only for the
// duration of a single dispatch.
type ArchiveRecord struct {
	GuildID     int64
	ChannelID   int64
	MessageID   int64
	SenderName  string
	ChannelName string
	URLs        []string
	Attachments []AttachmentRef
	Permalink   string
	CapturedAt  time.Time
}

// Filenames returns attachment filenames in message order
func (r ArchiveRecord) Filenames() []string {
	names := make([]string, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		names = append(names, a.Filename)
	}
	return names
}

// ArchiveSummary is the formatted representation of an ArchiveRecord that is
// sent to the archive channel as a single message.
type ArchiveSummary struct {
	Title      string
	Fields     []SummaryField
	CapturedAt time.Time
}

// SummaryField is a named block of the summary
type SummaryField struct {
	Name   string
	Value  string
	Inline bool
}
