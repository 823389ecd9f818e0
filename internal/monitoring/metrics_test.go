package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gaugesFor returns the gauge values of a family keyed by their single
// instrument label, failing on any other label.
func gaugesFor(t *testing.T, family, instrument string) []float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var values []float64
	for _, mf := range families {
		if mf.GetName() != family {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := m.GetLabel()
			require.Len(t, labels, 1, family)
			require.Equal(t, "instrument", labels[0].GetName())
			if labels[0].GetValue() == instrument {
				values = append(values, m.GetGauge().GetValue())
			}
		}
	}
	return values
}

func TestUpdateSignalConviction_ReasonChangeKeepsOneSeries(t *testing.T) {
	const inst = "TEST_REASON_CHANGE"

	UpdateSignalConviction(inst, 2, 0)
	UpdateSignalConviction(inst, 3, 0.4)
	UpdateSignalConviction(inst, 0, 0.7)

	assert.Equal(t, []float64{0.7}, gaugesFor(t, "sleeve_engine_signal_conviction", inst))
	assert.Equal(t, []float64{0}, gaugesFor(t, "sleeve_engine_signal_reason", inst))
}
