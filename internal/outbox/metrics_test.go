package outbox

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestBatchDurationObservationsAreRecorded(t *testing.T) {
	before := sampleCount(t)
	batchDuration.Observe(0.25)
	after := sampleCount(t)

	require.Equal(t, before+1, after)
}

func TestDLQCounterLabelsByTopic(t *testing.T) {
	before := testutil.ToFloat64(dlqCounter.WithLabelValues("activity_audit"))
	dlqCounter.WithLabelValues("activity_audit").Inc()
	after := testutil.ToFloat64(dlqCounter.WithLabelValues("activity_audit"))

	require.InDelta(t, before+1, after, 0.0001)
}

func TestBackoffDelayGrowsAndCaps(t *testing.T) {
	manager := NewDLQManager(nil, 5, time.Minute)

	require.Equal(t, time.Minute, manager.backoffDelay(1))
	require.Equal(t, 2*time.Minute, manager.backoffDelay(2))
	require.Equal(t, 16*time.Minute, manager.backoffDelay(5))
	require.Equal(t, time.Hour, manager.backoffDelay(10), "delay must cap at one hour")
}

func sampleCount(t *testing.T) uint64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, batchDuration.Write(metric))
	hist := metric.GetHistogram()
	require.NotNil(t, hist)
	return hist.GetSampleCount()
}
