package metrics

import (
	"testing"
	"time"

	"github.com/mittwald/mittcheck/pkg/value"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()

	m.Observe("web", value.NewSnapshot(map[string]value.Value{"status": value.String("ok")}), 20*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckUp.WithLabelValues("web")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckQueries.WithLabelValues("web", "ok")))

	m.Observe("web", value.ErrorSnapshot("down"), time.Second)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CheckUp.WithLabelValues("web")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckQueries.WithLabelValues("web", "error")))

	assert.Equal(t, 1, testutil.CollectAndCount(m.CheckDuration))
}

func TestForget(t *testing.T) {
	m := New()
	m.Observe("web", value.EmptySnapshot(), time.Millisecond)
	m.Observe("db", value.EmptySnapshot(), time.Millisecond)

	m.Forget("web")
	assert.Equal(t, 1, testutil.CollectAndCount(m.CheckUp))
}

func TestGatherer(t *testing.T) {
	m := New()
	m.Cycles.Inc()
	m.RejectedScripts.Set(2)

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["mittcheck_scheduler_cycles_total"])
	assert.True(t, names["mittcheck_rejected_scripts"])
	assert.True(t, names["go_goroutines"])
}
