package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// New registers every collector against the default Prometheus
// registry, so this suite calls it exactly once and exercises every
// recording method against that single instance, rather than
// registering (and colliding on) a fresh Metrics per test case.
func TestMetrics(t *testing.T) {
	m := New("gid-under-test")

	m.UpdateGraphStats(3, 5, 1, 2)
	assert.Equal(t, float64(3), gaugeValue(t, m.WritersTotal))
	assert.Equal(t, float64(5), gaugeValue(t, m.ReadersTotal))
	assert.Equal(t, float64(1), gaugeValue(t, m.ParticipantsTotal))
	assert.Equal(t, float64(2), gaugeValue(t, m.NodesTotal))

	m.RecordQoSCheck("error")
	m.RecordQoSCheck("error")
	assert.Equal(t, float64(2), counterValue(t, m.QoSChecksTotal.WithLabelValues("error")))

	m.RecordQoSResolution(false)
	m.RecordQoSResolution(true)
	assert.Equal(t, float64(2), counterValue(t, m.QoSResolutionsTotal))
	assert.Equal(t, float64(1), counterValue(t, m.QoSResolutionsFailed))

	m.RecordDiscoveryMessage("inbound", 0.01)
	assert.Equal(t, float64(1), counterValue(t, m.DiscoveryMessagesTotal.WithLabelValues("inbound")))
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, g.Write(&pb))
	return pb.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, c.Write(&pb))
	return pb.GetCounter().GetValue()
}
