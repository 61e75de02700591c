package infrastructure

import (
	"context"

	"royalwager/events"
	"royalwager/infrastructure/observability"
)

// MetricsEventHandler turns domain events into transition and settlement metrics
type MetricsEventHandler struct {
	metrics *observability.MetricsProvider
}

// NewMetricsEventHandler creates a new MetricsEventHandler
func NewMetricsEventHandler(metrics *observability.MetricsProvider) *MetricsEventHandler {
	return &MetricsEventHandler{metrics: metrics}
}

// Subscribe registers the handler on the local bus
func (h *MetricsEventHandler) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeWagerStateChange, h.HandleEvent)
	bus.Subscribe(events.EventTypeSettlementRecorded, h.HandleEvent)
}

// HandleEvent records the metric matching the event
func (h *MetricsEventHandler) HandleEvent(ctx context.Context, event events.Event) {
	switch e := event.(type) {
	case events.WagerStateChangeEvent:
		if e.OldStatus == e.NewStatus {
			return
		}
		h.metrics.RecordWagerTransition(ctx, string(e.OldStatus), string(e.NewStatus))
	case events.SettlementRecordedEvent:
		h.metrics.RecordSettlement(ctx, string(e.Kind))
	}
}
