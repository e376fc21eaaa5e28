package metrics_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeydesk/internal/metrics"
)

func TestCountersRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	m.FlowStarted("order")
	m.FlowStarted("order")
	m.FlowCancelled("order")
	m.NotifyFailed()

	n, err := testutil.GatherAndCount(reg, "honeydesk_flow_started_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	const want = `
# HELP honeydesk_flow_started_total Conversation flows entered
# TYPE honeydesk_flow_started_total counter
honeydesk_flow_started_total{flow="order"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "honeydesk_flow_started_total"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	m, err := metrics.New(nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.FlowStarted("x")
		m.Decision("orders", "conflict")
		m.NotifyFailed()
	})
}

