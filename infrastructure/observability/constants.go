package observability

// Metric name prefixes
const (
	MetricPrefix = "linkkeeper"
)

// Metric names
const (
	// Pipeline metrics
	MessagesProcessedTotal = MetricPrefix + ".messages.processed_total"

	// Archive delivery metrics
	AttachmentsUploadedTotal = MetricPrefix + ".attachments.uploaded_total"

	// Settings metrics
	SettingsPersistFailuresTotal = MetricPrefix + ".settings.persist_failures_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelState     = "state"
	LabelReason    = "reason"
	LabelResult    = "result"
	LabelEventType = "event_type"
)

// Attachment upload results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Exporter types
const (
	ExporterConsole = "console"
	ExporterOTLP    = "otlp"
	ExporterNone    = "none"
)
