package retrieval

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DocumentsIngested counts documents submitted to the vector store.
	// Labels: source (unit_guide, skills_mapping, public_resource)
	DocumentsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "advisord",
			Subsystem: "retrieval",
			Name:      "documents_ingested_total",
			Help:      "Total number of documents submitted to the vector store",
		},
		[]string{"source"},
	)

	// IngestBatches counts batch upserts by outcome.
	// Labels: source, result (success, error)
	IngestBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "advisord",
			Subsystem: "retrieval",
			Name:      "ingest_batches_total",
			Help:      "Total number of ingestion batch upserts",
		},
		[]string{"source", "result"},
	)

	// RecordsSkipped counts source records dropped before indexing.
	// Labels: source, reason (malformed, duplicate)
	RecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "advisord",
			Subsystem: "retrieval",
			Name:      "records_skipped_total",
			Help:      "Total number of source records skipped during ingestion",
		},
		[]string{"source", "reason"},
	)

	// QueryDuration tracks end-to-end query latency.
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "advisord",
			Subsystem: "retrieval",
			Name:      "query_duration_seconds",
			Help:      "Duration of retrieval queries in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// QueryDuplicatesDropped counts results suppressed by content dedup.
	QueryDuplicatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "advisord",
			Subsystem: "retrieval",
			Name:      "query_duplicates_dropped_total",
			Help:      "Total number of query results dropped as content duplicates",
		},
	)
)
