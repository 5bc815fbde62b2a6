package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Counters(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.PlanSaved("workout", "ok")
	m.PlanSaved("workout", "ok")
	m.PlanSaved("diet", "invalid")
	m.CompletionRecorded("exercise")
	m.ReportsBuilt(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterPlanSaves.WithLabelValues("workout", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterPlanSaves.WithLabelValues("diet", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterCompletions.WithLabelValues("exercise")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CounterReports))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestManager_NilIsNoop(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() {
		m.PlanSaved("workout", "ok")
		m.CompletionRecorded("meal")
		m.ReportsBuilt(1)
	})
}
