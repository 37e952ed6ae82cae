package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bicho/application"
	"bicho/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// MetricsProvider manages OpenTelemetry metrics for the settlement engine
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	// Metric instruments
	settlementRunsCounter        metric.Int64Counter
	settlementRunDurationHist    metric.Float64Histogram
	settlementWagersCounter      metric.Int64Counter
	settlementPayoutsCounter     metric.Int64Counter
	settlementFailuresCounter    metric.Int64Counter
	cancellationsCounter         metric.Int64Counter
	natsMessagesPublishedCounter metric.Int64Counter
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

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var reader sdkmetric.Reader
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		reader = mp.periodicReader(exporter)
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		reader = mp.periodicReader(exporter)
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "prometheus":
		// Registers with the default Prometheus registerer served on /metrics
		exporter, err := otelprom.New()
		if err != nil {
			return fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		reader = exporter
		log.Info("Using Prometheus metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("bicho")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) periodicReader(exporter sdkmetric.Exporter) sdkmetric.Reader {
	return sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.settlementRunsCounter, err = mp.meter.Int64Counter(
		SettlementRunsTotal,
		metric.WithDescription("Total number of settlement runs"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create settlement runs counter: %w", err)
	}

	mp.settlementRunDurationHist, err = mp.meter.Float64Histogram(
		SettlementRunDuration,
		metric.WithDescription("Duration of settlement runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return fmt.Errorf("failed to create settlement duration histogram: %w", err)
	}

	mp.settlementWagersCounter, err = mp.meter.Int64Counter(
		SettlementWagersTotal,
		metric.WithDescription("Wagers processed by settlement, by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create settlement wagers counter: %w", err)
	}

	mp.settlementPayoutsCounter, err = mp.meter.Int64Counter(
		SettlementPayoutsCents,
		metric.WithDescription("Total prize money credited, in cents"),
		metric.WithUnit("{cent}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create payouts counter: %w", err)
	}

	mp.settlementFailuresCounter, err = mp.meter.Int64Counter(
		SettlementFailuresTotal,
		metric.WithDescription("Settlement runs that aborted before processing wagers"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create settlement failures counter: %w", err)
	}

	mp.cancellationsCounter, err = mp.meter.Int64Counter(
		CancellationsTotal,
		metric.WithDescription("Cancellation requests, by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cancellations counter: %w", err)
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

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordSettlementRun records the summary of a completed settlement run
func (mp *MetricsProvider) RecordSettlementRun(summary *application.SettlementSummary, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	ctx := context.Background()
	slot := metric.WithAttributes(
		attribute.String(LabelSource, summary.Source),
		attribute.String(LabelTimeSlot, summary.TimeSlot),
	)

	mp.settlementRunsCounter.Add(ctx, 1, slot)
	mp.settlementRunDurationHist.Record(ctx, duration.Seconds(), slot)
	mp.settlementPayoutsCounter.Add(ctx, int64(summary.TotalPaid), slot)

	outcomes := map[string]int{
		OutcomeWon:     summary.Won,
		OutcomeLost:    summary.Lost,
		OutcomePending: summary.Verified - summary.Won - summary.Lost,
		OutcomeSkipped: summary.Skipped,
		OutcomeFailed:  summary.Failed,
	}
	for outcome, n := range outcomes {
		if n <= 0 {
			continue
		}
		mp.settlementWagersCounter.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String(LabelSource, summary.Source),
			attribute.String(LabelTimeSlot, summary.TimeSlot),
			attribute.String(LabelOutcome, outcome),
		))
	}
}

// RecordSettlementFailure records a run that could not start processing wagers
func (mp *MetricsProvider) RecordSettlementFailure(source, timeSlot, reason string) {
	if !mp.isEnabled() {
		return
	}

	mp.settlementFailuresCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelSource, source),
			attribute.String(LabelTimeSlot, timeSlot),
			attribute.String(LabelResult, reason),
		),
	)
}

// RecordCancellation records a cancellation request result
func (mp *MetricsProvider) RecordCancellation(result string) {
	if !mp.isEnabled() {
		return
	}

	mp.cancellationsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelResult, result),
		),
	)
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

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
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

// GetMetrics returns the global metrics provider
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
