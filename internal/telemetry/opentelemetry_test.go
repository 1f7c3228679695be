package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitMeterProviderExportsToRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()

	mp, err := InitMeterProvider("shadow-auth-test", reg)
	require.NoError(t, err)
	t.Cleanup(func() { Shutdown(context.Background(), mp) })

	counter, err := otel.Meter("telemetry-test").Int64Counter("shadow_auth_test_events")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() == "shadow_auth_test_events_total" {
			found = true
			require.Len(t, mf.GetMetric(), 1)
			assert.InDelta(t, 3, mf.GetMetric()[0].GetCounter().GetValue(), 0)
		}
	}
	assert.True(t, found, "otel counter should be exported through the registry")
}

func TestShutdownNil(t *testing.T) {
	assert.NotPanics(t, func() { Shutdown(context.Background(), nil) })
}
