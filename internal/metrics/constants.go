package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Catalog metric names
const (
	MetricNameItemsCreated         = "items_created_total"
	MetricNameModerationActions    = "moderation_actions_total"
	MetricNameListRefreshes        = "list_refreshes_total"
	MetricNameLookupCache          = "lookup_cache_requests_total"
	MetricNameSSEClients           = "sse_clients"
	MetricNameNotificationFailures = "notification_failures_total"
	MetricNameUploadRollbacks      = "upload_rollbacks_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Catalog metric help text
const (
	HelpTextItemsCreated         = "Total number of items created, by write transport"
	HelpTextModerationActions    = "Total number of publish and reject actions, by result"
	HelpTextListRefreshes        = "Total number of item list refreshes, by outcome"
	HelpTextLookupCache          = "Lookup cache requests, by kind and result"
	HelpTextSSEClients           = "Current number of connected SSE clients"
	HelpTextNotificationFailures = "Total number of failed moderation notifications"
	HelpTextUploadRollbacks      = "Total number of uploaded objects removed during rollback"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelType      = "type"
	LabelTransport = "transport"
	LabelAction    = "action"
	LabelResult    = "result"
	LabelOutcome   = "outcome"
	LabelKind      = "kind"
)

// Label values
const (
	TransportPrimary  = "primary"
	TransportFallback = "fallback"
	TransportServer   = "server"

	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultHit     = "hit"
	ResultMiss    = "miss"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds, from 1ms to 10s.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Debug log messages
const (
	LogMsgEventPayloadInvalid = "Event payload could not be decoded"
	LogMsgMetricsRecorded     = "Metrics recorded for event"
)
