package observability

import "github.com/prometheus/client_golang/prometheus"

// Pipeline-level Prometheus metrics. HTTP metrics live in the middleware
// package; these count domain events so dashboards can distinguish "the
// webhook is quiet" from "the webhook is rejecting everything".
var (
	// LeadsIngested counts webhook lead items by outcome
	// (created / duplicate / failed).
	LeadsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_ingested_total",
			Help: "Webhook lead items processed, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	// RepliesProcessed counts detected email replies by classified
	// sentiment.
	RepliesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_replies_processed_total",
			Help: "Inbound email replies processed, labeled by sentiment.",
		},
		[]string{"sentiment"},
	)

	// ClassifierFallbacks counts replies that received the neutral
	// fallback verdict instead of a model answer.
	ClassifierFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "classifier_fallbacks_total",
			Help: "Sentiment classifications that fell back to neutral.",
		},
	)
)

func init() {
	prometheus.MustRegister(LeadsIngested, RepliesProcessed, ClassifierFallbacks)
}
