// Package metrics collects load-driver request statistics.
//
// Metrics keeps atomic counters for total, successful and failed requests,
// stale reads, and a bounded sample of latencies for P99. It is safe for
// concurrent use by every simulated user of a worker.
//
// # Basic Usage
//
//	m := metrics.New()
//	m.Record("/get", true, time.Since(start))
//	m.RecordStale()
//	snap := m.Snapshot()
//
// # Prometheus
//
// An Exporter mirrors every record into Prometheus collectors:
//
//	e, err := metrics.NewExporter(prometheus.DefaultRegisterer)
//	m.Export(e, "50_50")
//
// The collectors are kvmix_requests_total{mix,endpoint,status},
// kvmix_request_duration_seconds{mix,endpoint} and
// kvmix_stale_reads_total{mix}.
package metrics
