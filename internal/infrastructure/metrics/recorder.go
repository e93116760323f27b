package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
)

var _ inventory.Metrics = (*Recorder)(nil)

// Recorder contadores Prometheus del motor de movimientos.
type Recorder struct {
	decisions      *prometheus.CounterVec
	entries        *prometheus.CounterVec
	lockContention prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewRecorder crea los colectores y los registra en reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockledger",
			Name:      "requests_decided_total",
			Help:      "Solicitudes decididas por tipo y resultado.",
		}, []string{"kind", "outcome"}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockledger",
			Name:      "ledger_entries_appended_total",
			Help:      "Asientos confirmados en el ledger por tipo de movimiento.",
		}, []string{"kind"}),
		lockContention: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockledger",
			Name:      "lock_timeouts_total",
			Help:      "Esperas por bloqueo de saldo que vencieron y se reintentaron.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockledger",
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP por método, ruta y código.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stockledger",
			Name:      "http_request_duration_seconds",
			Help:      "Latencia de peticiones HTTP.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(r.decisions, r.entries, r.lockContention, r.httpRequests, r.httpDuration)
	return r
}

// NewRegistry registro propio con los colectores de proceso y runtime de Go.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (r *Recorder) RequestDecided(kind, outcome string) {
	r.decisions.WithLabelValues(kind, outcome).Inc()
}

func (r *Recorder) EntriesAppended(kind string, n int) {
	r.entries.WithLabelValues(kind).Add(float64(n))
}

func (r *Recorder) LockContention() {
	r.lockContention.Inc()
}

// ObserveHTTP registra una petición atendida.
func (r *Recorder) ObserveHTTP(method, route, status string, seconds float64) {
	r.httpRequests.WithLabelValues(method, route, status).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(seconds)
}
