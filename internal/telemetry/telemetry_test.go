package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		in    float64
		ratio float64
	}{
		{name: "unset", in: 0, ratio: 1},
		{name: "negative", in: -0.5, ratio: 1},
		{name: "above one", in: 3, ratio: 1},
		{name: "kept", in: 0.25, ratio: 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{SampleRatio: tt.in}
			cfg.ApplyDefaults()
			require.InDelta(t, tt.ratio, cfg.SampleRatio, 0.0001)
			require.Equal(t, 10*time.Second, cfg.MetricInterval)
		})
	}
}

func TestGetMetrics(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)
	require.Same(t, m, GetMetrics())

	// instruments from the global noop provider must be usable
	require.NotPanics(t, func() {
		m.OrganizationsCreatedTotal.Add(context.Background(), 1)
		m.StoreDuration.Record(context.Background(), 1.5)
	})
}
