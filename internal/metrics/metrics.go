package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Catalog Metrics
var (
	ItemsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameItemsCreated,
			Help: HelpTextItemsCreated,
		},
		[]string{LabelTransport},
	)

	ModerationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameModerationActions,
			Help: HelpTextModerationActions,
		},
		[]string{LabelAction, LabelResult},
	)

	ListRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameListRefreshes,
			Help: HelpTextListRefreshes,
		},
		[]string{LabelOutcome},
	)

	LookupCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameLookupCache,
			Help: HelpTextLookupCache,
		},
		[]string{LabelKind, LabelResult},
	)

	SSEClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameSSEClients,
			Help: HelpTextSSEClients,
		},
	)

	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameNotificationFailures,
			Help: HelpTextNotificationFailures,
		},
	)

	UploadRollbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameUploadRollbacks,
			Help: HelpTextUploadRollbacks,
		},
	)
)
