package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown := Setup(context.Background(), false, "reception-cli", "test")
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestGetMetrics_Singleton(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)
	assert.Same(t, m, GetMetrics())
	assert.NotNil(t, m.LoginsTotal)
	assert.NotNil(t, m.APIRequestsTotal)
	assert.NotNil(t, Tracer())
}
