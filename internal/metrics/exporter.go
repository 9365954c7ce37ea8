package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kvmix"

// Exporter はドライバーのメトリクスをPrometheusに公開する
type Exporter struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	staleReads *prometheus.CounterVec
}

// NewExporter はコレクタを作成してregに登録する
func NewExporter(reg prometheus.Registerer) (*Exporter, error) {
	e := &Exporter{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests issued by the load driver.",
		}, []string{"mix", "endpoint", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of requests issued by the load driver.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"mix", "endpoint"}),
		staleReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_reads_total",
			Help:      "Reads that returned a value older than the user's last write.",
		}, []string{"mix"}),
	}

	for _, c := range []prometheus.Collector{e.requests, e.duration, e.staleReads} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Exporter) observe(mix, endpoint string, ok bool, latency time.Duration) {
	status := "OK"
	if !ok {
		status = "FAIL"
	}
	e.requests.WithLabelValues(mix, endpoint, status).Inc()
	if ok {
		e.duration.WithLabelValues(mix, endpoint).Observe(latency.Seconds())
	}
}
