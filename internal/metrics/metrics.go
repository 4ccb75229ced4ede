//
// prometheus instrumentation for the scrn-score service.
//
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scrn_score"

var (
	// ScoreRequests counts webhook scoring invocations.
	ScoreRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "score_requests_total",
		Help:      "Screener scoring webhook requests received.",
	})

	// ItemsProcessed counts answer items classified and stored.
	ItemsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "screener_items_processed_total",
		Help:      "Screener answer items successfully classified.",
	})

	// ItemsSkipped counts malformed or unrecognised answer items.
	ItemsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "screener_items_skipped_total",
		Help:      "Screener answer items dropped as malformed or unrecognised.",
	})

	// StoreErrors counts failed backing-store round trips.
	StoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Backing store operations that returned an error.",
	})
)
