package observability

// Metric name prefixes
const (
	MetricPrefix = "royalwager"
)

// Metric names
const (
	// Wager metrics
	WagerTransitionsTotal = MetricPrefix + ".wagers.transitions_total"
	WagersActive          = MetricPrefix + ".wagers.active"

	// Verification metrics
	VerificationsTotal = MetricPrefix + ".verification.results_total"

	// Oracle metrics
	OracleRequestsTotal   = MetricPrefix + ".oracle.requests_total"
	OracleRequestDuration = MetricPrefix + ".oracle.request_duration"

	// Webhook metrics
	WebhookDeliveriesTotal = MetricPrefix + ".webhook.deliveries_total"

	// Settlement metrics
	SettlementsRecordedTotal = MetricPrefix + ".settlements.recorded_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelFromStatus = "from_status"
	LabelToStatus   = "to_status"
	LabelOutcome    = "outcome"
	LabelOperation  = "operation"
	LabelResult     = "result"
	LabelKind       = "kind"
	LabelEventType  = "event_type"
	LabelErrorCode  = "error_code"
)

// Result label values
const (
	ResultSuccess = "success"
	ResultError   = "error"
)
