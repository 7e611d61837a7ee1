package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus exports limiter events as Prometheus metrics.
type Prometheus struct {
	allowed  prometheus.Counter
	denied   prometheus.Counter
	l1Hits   prometheus.Counter
	kvErrors *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewPrometheus registers the limiter metrics with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)

	return &Prometheus{
		allowed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ratelimit_allowed_total",
			Help: "Requests admitted by the rate limiter",
		}),
		denied: factory.NewCounter(prometheus.CounterOpts{
			Name: "ratelimit_denied_total",
			Help: "Requests rejected by the rate limiter",
		}),
		l1Hits: factory.NewCounter(prometheus.CounterOpts{
			Name: "ratelimit_l1_hits_total",
			Help: "Checks served from the in-process cache",
		}),
		kvErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ratelimit_kv_errors_total",
			Help: "Durable store failures by operation",
		}, []string{"op"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ratelimit_check_duration_seconds",
			Help:    "Latency of a single admission check",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
	}
}

// RegisterCacheSize exports the L1 cache size as a gauge.
func RegisterCacheSize(reg prometheus.Registerer, size func() int) {
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ratelimit_l1_entries",
		Help: "Entries currently held in the in-process cache",
	}, func() float64 {
		return float64(size())
	})
}

func (p *Prometheus) Allow() { p.allowed.Inc() }
func (p *Prometheus) Deny() { p.denied.Inc() }
func (p *Prometheus) L1Hit() { p.l1Hits.Inc() }
func (p *Prometheus) KVError(op string) { p.kvErrors.WithLabelValues(op).Inc() }

func (p *Prometheus) ObserveCheck(d time.Duration) {
	p.duration.Observe(d.Seconds())
}
