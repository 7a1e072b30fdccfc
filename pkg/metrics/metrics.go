// Package metrics exposes the pipeline's Prometheus collectors. Counters are
// registered on the default registry; Serve publishes them for daemon mode.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts catalog API responses by status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinesync_http_requests_total",
		Help: "Catalog API requests by HTTP status code.",
	}, []string{"code"})

	// PagesFetched counts pages that returned results.
	PagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinesync_pages_fetched_total",
		Help: "Pages fetched successfully.",
	})

	// PagesAbandoned counts pages dropped after exhausting retries.
	PagesAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinesync_pages_abandoned_total",
		Help: "Pages abandoned after the retry budget.",
	})

	// MoviesInserted counts primary records staged and committed.
	MoviesInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinesync_movies_inserted_total",
		Help: "New movie rows committed to the store.",
	})

	// MoviesSkipped counts items skipped because their id already existed.
	MoviesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinesync_movies_skipped_total",
		Help: "Items skipped as already present in the store.",
	})

	// BatchesCommitted counts successful batch transactions.
	BatchesCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinesync_batches_committed_total",
		Help: "Batch transactions committed.",
	})
)

// Serve exposes /metrics on addr. It blocks, so callers run it in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
