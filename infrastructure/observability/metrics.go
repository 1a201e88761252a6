package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"linkkeeper/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the archive bot.
// A nil provider, or one that is disabled, records nothing.
type MetricsProvider struct {
	config        *config.Config
	reader        sdkmetric.Reader // Overrides the configured exporter when set
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	recording     bool
	mu            sync.RWMutex

	// Metric instruments
	messagesProcessedCounter     metric.Int64Counter
	attachmentsUploadedCounter   metric.Int64Counter
	settingsPersistFailures      metric.Int64Counter
	natsMessagesPublishedCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// NewMetricsProviderWithReader creates a provider that reports to reader
// instead of the configured exporter
func NewMetricsProviderWithReader(cfg *config.Config, reader sdkmetric.Reader) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
		reader: reader,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Println("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Println("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	reader := mp.reader
	if reader == nil {
		var exporter sdkmetric.Exporter
		switch mp.config.OTelExporterType {
		case ExporterConsole:
			exporter, err = stdoutmetric.New()
			if err != nil {
				return fmt.Errorf("failed to create console exporter: %w", err)
			}
			log.Println("Using console metric exporter")

		case ExporterOTLP:
			dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			exporter, err = otlpmetricgrpc.New(dialCtx,
				otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
				otlpmetricgrpc.WithInsecure(),
			)
			if err != nil {
				return fmt.Errorf("failed to create OTLP exporter: %w", err)
			}
			log.Printf("Using OTLP metric exporter: %s", mp.config.OTelOTLPEndpoint)

		case ExporterNone, "":
			log.Println("Metrics export disabled (exporter_type='none')")
			mp.initialized = true
			return nil

		default:
			return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
		}

		interval := time.Duration(mp.config.OTelExportIntervalMillis) * time.Millisecond
		if interval <= 0 {
			interval = time.Minute
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("linkkeeper")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.recording = true
	log.Println("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.messagesProcessedCounter, err = mp.meter.Int64Counter(
		MessagesProcessedTotal,
		metric.WithDescription("Total number of messages that reached a terminal pipeline state"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create messages processed counter: %w", err)
	}

	mp.attachmentsUploadedCounter, err = mp.meter.Int64Counter(
		AttachmentsUploadedTotal,
		metric.WithDescription("Total number of attachment re-uploads by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create attachments uploaded counter: %w", err)
	}

	mp.settingsPersistFailures, err = mp.meter.Int64Counter(
		SettingsPersistFailuresTotal,
		metric.WithDescription("Total number of guild settings writes that failed to persist"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create settings persist failures counter: %w", err)
	}

	mp.natsMessagesPublishedCounter, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS messages published counter: %w", err)
	}

	return nil
}

// Shutdown flushes and shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.recording = false
	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordMessageProcessed records the terminal state of one message
func (mp *MetricsProvider) RecordMessageProcessed(state, reason string) {
	if !mp.isEnabled() {
		return
	}

	mp.messagesProcessedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelState, state),
			attribute.String(LabelReason, reason),
		),
	)
}

// RecordAttachmentUploads records the attachment tally of one dispatch
func (mp *MetricsProvider) RecordAttachmentUploads(uploaded, failed int) {
	if !mp.isEnabled() {
		return
	}

	if uploaded > 0 {
		mp.attachmentsUploadedCounter.Add(context.Background(), int64(uploaded),
			metric.WithAttributes(attribute.String(LabelResult, ResultSuccess)),
		)
	}
	if failed > 0 {
		mp.attachmentsUploadedCounter.Add(context.Background(), int64(failed),
			metric.WithAttributes(attribute.String(LabelResult, ResultFailure)),
		)
	}
}

// RecordSettingsPersistFailure records a settings write that did not reach storage
func (mp *MetricsProvider) RecordSettingsPersistFailure() {
	if !mp.isEnabled() {
		return
	}

	mp.settingsPersistFailures.Add(context.Background(), 1)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsMessagesPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, eventType),
		),
	)
}

// isEnabled checks if metrics are enabled and instruments exist
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.recording
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider. It is nil until
// InitializeGlobalMetrics runs; every Record method tolerates that.
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
