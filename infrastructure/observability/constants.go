package observability

// Metric name prefixes
const (
	MetricPrefix = "bicho"
)

// Metric names
const (
	// Settlement metrics
	SettlementRunsTotal     = MetricPrefix + ".settlement.runs_total"
	SettlementRunDuration   = MetricPrefix + ".settlement.run_duration"
	SettlementWagersTotal   = MetricPrefix + ".settlement.wagers_total"
	SettlementPayoutsCents  = MetricPrefix + ".settlement.payouts_cents_total"
	SettlementFailuresTotal = MetricPrefix + ".settlement.failures_total"

	// Cancellation metrics
	CancellationsTotal = MetricPrefix + ".cancellations_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelSource    = "source"
	LabelTimeSlot  = "time_slot"
	LabelOutcome   = "outcome"
	LabelEventType = "event_type"
	LabelResult    = "result"
)

// Wager outcomes within a settlement run
const (
	OutcomeWon     = "won"
	OutcomeLost    = "lost"
	OutcomePending = "pending"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)
