package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"

	"royalwager/config"
	"royalwager/domain/wagererr"
)

// MetricsProvider manages OpenTelemetry metrics for the wager service.
// A nil or disabled provider silently drops every recording.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	transitionsCounter    metric.Int64Counter
	activeWagersGauge     metric.Int64UpDownCounter
	verificationsCounter  metric.Int64Counter
	oracleRequestsCounter metric.Int64Counter
	oracleDurationHist    metric.Float64Histogram
	webhookCounter        metric.Int64Counter
	settlementsCounter    metric.Int64Counter
	natsPublishedCounter  metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	// Create resource with service information
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	// Create appropriate exporter based on config
	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	// Create meter provider with periodic reader
	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)

	// Set as global meter provider
	otel.SetMeterProvider(mp.meterProvider)

	meter := mp.meterProvider.Meter("royalwager")
	if err := mp.createInstruments(meter); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}
	mp.meter = meter

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments(meter metric.Meter) error {
	var err error

	mp.transitionsCounter, err = meter.Int64Counter(
		WagerTransitionsTotal,
		metric.WithDescription("Total number of wager status transitions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create transitions counter: %w", err)
	}

	// Using UpDownCounter for gauge-like behavior
	mp.activeWagersGauge, err = meter.Int64UpDownCounter(
		WagersActive,
		metric.WithDescription("Current number of ACTIVE wagers seen by this process"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create active wagers gauge: %w", err)
	}

	mp.verificationsCounter, err = meter.Int64Counter(
		VerificationsTotal,
		metric.WithDescription("Total number of verification results by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create verifications counter: %w", err)
	}

	mp.oracleRequestsCounter, err = meter.Int64Counter(
		OracleRequestsTotal,
		metric.WithDescription("Total number of match oracle requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create oracle requests counter: %w", err)
	}

	mp.oracleDurationHist, err = meter.Float64Histogram(
		OracleRequestDuration,
		metric.WithDescription("Duration of match oracle requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create oracle duration histogram: %w", err)
	}

	mp.webhookCounter, err = meter.Int64Counter(
		WebhookDeliveriesTotal,
		metric.WithDescription("Total number of deposit webhook transactions by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook counter: %w", err)
	}

	mp.settlementsCounter, err = meter.Int64Counter(
		SettlementsRecordedTotal,
		metric.WithDescription("Total number of recorded payouts and refunds"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create settlements counter: %w", err)
	}

	mp.natsPublishedCounter, err = meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS messages published counter: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordWagerTransition records a committed status change
func (mp *MetricsProvider) RecordWagerTransition(ctx context.Context, from, to string) {
	if !mp.isEnabled() {
		return
	}

	mp.transitionsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(LabelFromStatus, from),
			attribute.String(LabelToStatus, to),
		),
	)

	if to == "ACTIVE" {
		mp.activeWagersGauge.Add(ctx, 1)
	} else if from == "ACTIVE" {
		mp.activeWagersGauge.Add(ctx, -1)
	}
}

// RecordVerification records the outcome of a verification call
func (mp *MetricsProvider) RecordVerification(ctx context.Context, outcome string) {
	if !mp.isEnabled() {
		return
	}

	mp.verificationsCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String(LabelOutcome, outcome)),
	)
}

// RecordOracleCall records one oracle request with its duration and result
func (mp *MetricsProvider) RecordOracleCall(ctx context.Context, operation string, duration time.Duration, err error) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelOperation, operation),
		attribute.String(LabelResult, resultOf(err)),
		attribute.String(LabelErrorCode, string(wagererr.CodeOf(err))),
	)

	mp.oracleRequestsCounter.Add(ctx, 1, attrs)
	mp.oracleDurationHist.Record(ctx, duration.Seconds(), attrs)
}

// RecordWebhookDelivery records how one webhook transaction was handled
func (mp *MetricsProvider) RecordWebhookDelivery(ctx context.Context, result string) {
	if !mp.isEnabled() {
		return
	}

	mp.webhookCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String(LabelResult, result)),
	)
}

// RecordSettlement records a payout or refund signature being stored
func (mp *MetricsProvider) RecordSettlement(ctx context.Context, kind string) {
	if !mp.isEnabled() {
		return
	}

	mp.settlementsCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String(LabelKind, kind)),
	)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string, err error) {
	if !mp.isEnabled() {
		return
	}

	mp.natsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, eventType),
			attribute.String(LabelResult, resultOf(err)),
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
	return mp.initialized && mp.meter != nil
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
