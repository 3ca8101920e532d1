package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorsRegistered(t *testing.T) {
	for _, c := range []prometheus.Collector{AuditEntriesRecorded, StorageErrors, PipelineStages, HTTPRequests} {
		err := prometheus.Register(c)
		var are prometheus.AlreadyRegisteredError
		assert.ErrorAs(t, err, &are)
	}
}

func TestCounterIncrements(t *testing.T) {
	before := testutil.ToFloat64(AuditEntriesRecorded.WithLabelValues("metrics_test"))
	AuditEntriesRecorded.WithLabelValues("metrics_test").Inc()
	AuditEntriesRecorded.WithLabelValues("metrics_test").Add(2)
	assert.Equal(t, before+3, testutil.ToFloat64(AuditEntriesRecorded.WithLabelValues("metrics_test")))
}
