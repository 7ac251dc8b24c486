// Package metrics exposes ingestion counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RowsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "littertracker",
		Subsystem: "ingest",
		Name:      "rows_parsed_total",
		Help:      "Raw log rows successfully parsed",
	})
	RowsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "littertracker",
		Subsystem: "ingest",
		Name:      "rows_skipped_total",
		Help:      "Raw log rows dropped as unparseable",
	})
	RowsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "littertracker",
		Subsystem: "ingest",
		Name:      "rows_suppressed_total",
		Help:      "Rows excluded by a blacklist entry",
	})
	EventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "littertracker",
		Subsystem: "ingest",
		Name:      "events_ingested_total",
		Help:      "Events committed to the ledger",
	})
	DuplicatesIgnored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "littertracker",
		Subsystem: "ingest",
		Name:      "duplicates_ignored_total",
		Help:      "Idempotent inserts skipped on an existing timestamp key",
	})
	UploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "littertracker",
		Subsystem: "ingest",
		Name:      "uploads_total",
		Help:      "Completed log uploads",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
