// Package metrics holds the prometheus collectors shared by the audit store,
// the pipeline and the dashboard server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stockaudit"

var (
	// AuditEntriesRecorded counts entries appended to the audit store, by dataset name.
	AuditEntriesRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "entries_recorded_total",
		Help:      "Total number of audit entries recorded.",
	}, []string{"dataset"})

	// StorageErrors counts failed audit store operations, by operation.
	StorageErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "storage_errors_total",
		Help:      "Total number of failed audit store operations.",
	}, []string{"op"})

	// PipelineStages counts pipeline stage executions, by stage and outcome.
	PipelineStages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "stages_total",
		Help:      "Total number of pipeline stage executions.",
	}, []string{"stage", "result"})

	// HTTPRequests counts dashboard requests, by route and status class.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of dashboard HTTP requests.",
	}, []string{"path", "code"})
)

func init() {
	prometheus.MustRegister(AuditEntriesRecorded, StorageErrors, PipelineStages, HTTPRequests)
}
