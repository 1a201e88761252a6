package infrastructure

import (
	"context"

	"linkkeeper/events"
	"linkkeeper/infrastructure/observability"
)

// RegisterMetricsHandlers records bus events that are not visible at the
// call site of the metrics provider
func RegisterMetricsHandlers(bus *events.Bus) {
	bus.Subscribe(events.EventTypeGuildSettingsChanged, func(_ context.Context, event events.Event) {
		changed, ok := event.(events.GuildSettingsChangedEvent)
		if ok && !changed.Persisted {
			observability.GetMetrics().RecordSettingsPersistFailure()
		}
	})
}
