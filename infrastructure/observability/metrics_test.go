package observability

import (
	"context"
	"testing"

	"linkkeeper/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func enabledConfig() *config.Config {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	return cfg
}

// sumFor adds up the data points of the named counter whose attributes contain attrs
func sumFor(t *testing.T, reader *sdkmetric.ManualReader, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				matches := true
				for _, kv := range attrs {
					v, found := dp.Attributes.Value(kv.Key)
					if !found || v != kv.Value {
						matches = false
						break
					}
				}
				if matches {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestMetricsProvider_Records(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProviderWithReader(enabledConfig(), reader)
	require.NoError(t, mp.Initialize(context.Background()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	mp.RecordMessageProcessed("dispatched", "")
	mp.RecordMessageProcessed("excluded", "self")
	mp.RecordMessageProcessed("excluded", "self")
	mp.RecordAttachmentUploads(2, 1)
	mp.RecordAttachmentUploads(0, 0)
	mp.RecordSettingsPersistFailure()
	mp.RecordNATSMessagePublished("archive_dispatched")

	assert.Equal(t, int64(3), sumFor(t, reader, MessagesProcessedTotal))
	assert.Equal(t, int64(2), sumFor(t, reader, MessagesProcessedTotal, attribute.String(LabelReason, "self")))
	assert.Equal(t, int64(2), sumFor(t, reader, AttachmentsUploadedTotal, attribute.String(LabelResult, ResultSuccess)))
	assert.Equal(t, int64(1), sumFor(t, reader, AttachmentsUploadedTotal, attribute.String(LabelResult, ResultFailure)))
	assert.Equal(t, int64(1), sumFor(t, reader, SettingsPersistFailuresTotal))
	assert.Equal(t, int64(1), sumFor(t, reader, NATSMessagesPublishedTotal, attribute.String(LabelEventType, "archive_dispatched")))
}

func TestMetricsProvider_DisabledIsNoop(t *testing.T) {
	tests := []struct {
		name     string
		provider *MetricsProvider
	}{
		{name: "nil provider", provider: nil},
		{name: "disabled by config", provider: NewMetricsProvider(config.NewTestConfig())},
		{name: "enabled without exporter", provider: NewMetricsProvider(enabledConfig())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.provider != nil {
				require.NoError(t, tt.provider.Initialize(context.Background()))
			}

			assert.NotPanics(t, func() {
				tt.provider.RecordMessageProcessed("empty", "")
				tt.provider.RecordAttachmentUploads(1, 1)
				tt.provider.RecordSettingsPersistFailure()
				tt.provider.RecordNATSMessagePublished("archive_failed")
			})
		})
	}
}

func TestMetricsProvider_UnknownExporter(t *testing.T) {
	cfg := enabledConfig()
	cfg.OTelExporterType = "carrier-pigeon"

	err := NewMetricsProvider(cfg).Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown exporter type")
}
