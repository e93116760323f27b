package metrics_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stockledger-api/internal/infrastructure/metrics"
)

func TestRecorder_Contadores(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.NewRecorder(reg)

	r.RequestDecided("transfer", "approved")
	r.RequestDecided("transfer", "approved")
	r.RequestDecided("discard", "insufficient_stock")
	r.EntriesAppended("transfer", 2)
	r.EntriesAppended("receipt", 1)
	r.LockContention()
	r.ObserveHTTP("GET", "/api/balances", "200", 0.01)

	assert.Equal(t, 7, testutil.CollectAndCount(reg))

	mfs, err := reg.Gather()
	assert.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil {
				values[mf.GetName()] += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 3.0, values["stockledger_requests_decided_total"])
	assert.Equal(t, 3.0, values["stockledger_ledger_entries_appended_total"])
	assert.Equal(t, 1.0, values["stockledger_lock_timeouts_total"])
	assert.Equal(t, 1.0, values["stockledger_http_requests_total"])
}

func TestRecorder_LockContention(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.NewRecorder(reg)
	r.LockContention()
	r.LockContention()

	expected := `
# HELP stockledger_lock_timeouts_total Esperas por bloqueo de saldo que vencieron y se reintentaron.
# TYPE stockledger_lock_timeouts_total counter
stockledger_lock_timeouts_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "stockledger_lock_timeouts_total"))
}

func TestNewRegistry_IncluyeRuntime(t *testing.T) {
	reg := metrics.NewRegistry()
	mfs, err := reg.Gather()
	assert.NoError(t, err)

	var goMetrics int
	for _, mf := range mfs {
		if strings.HasPrefix(mf.GetName(), "go_") {
			goMetrics++
		}
	}
	assert.Positive(t, goMetrics)
}
