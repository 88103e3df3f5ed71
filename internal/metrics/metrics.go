// Package metrics records scenario outcomes as Prometheus metrics and
// writes them in the textfile collector format, so CI hosts running
// node_exporter can scrape verification results.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kuitang/dealer-verify/internal/errs"
	"github.com/kuitang/dealer-verify/internal/report"
)

const namespace = "dealer_verify"

// Recorder holds the metrics of one run in a private registry.
type Recorder struct {
	registry *prometheus.Registry

	success     *prometheus.GaugeVec
	duration    *prometheus.GaugeVec
	failures    *prometheus.CounterVec
	mockHits    *prometheus.GaugeVec
	passthrough *prometheus.GaugeVec
	shadowed    *prometheus.GaugeVec
}

// NewRecorder returns a recorder with every metric registered.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.success = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scenario_success",
		Help:      "1 if the scenario passed in the last run, 0 otherwise.",
	}, []string{"scenario"})
	r.duration = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scenario_duration_seconds",
		Help:      "Wall time of the last passing run of the scenario.",
	}, []string{"scenario"})
	r.failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scenario_failures_total",
		Help:      "Scenario failures by error code.",
	}, []string{"scenario", "code"})
	r.mockHits = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mock_hits",
		Help:      "Requests answered by each route mock.",
	}, []string{"scenario", "mock"})
	r.passthrough = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "passthrough_requests",
		Help:      "Requests no mock matched, sent to the real network.",
	}, []string{"scenario"})
	r.shadowed = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "shadowed_mocks",
		Help:      "Mocks made unreachable by an earlier, broader mock.",
	}, []string{"scenario"})

	r.registry.MustRegister(r.success, r.duration, r.failures, r.mockHits, r.passthrough, r.shadowed)
	return r
}

// Observe records one scenario outcome.
func (r *Recorder) Observe(o report.Outcome) {
	if !o.Passed() {
		r.success.WithLabelValues(o.Scenario).Set(0)
		r.failures.WithLabelValues(o.Scenario, string(errs.CodeOf(o.Err))).Inc()
		return
	}
	res := o.Result
	r.success.WithLabelValues(o.Scenario).Set(1)
	r.duration.WithLabelValues(o.Scenario).Set(res.Duration.Seconds())
	for mock, hits := range res.MockHits {
		r.mockHits.WithLabelValues(o.Scenario, mock).Set(float64(hits))
	}
	r.passthrough.WithLabelValues(o.Scenario).Set(float64(res.Passthrough))
	r.shadowed.WithLabelValues(o.Scenario).Set(float64(len(res.Shadowed)))
}

// ObserveAll records every outcome.
func (r *Recorder) ObserveAll(outcomes []report.Outcome) {
	for _, o := range outcomes {
		r.Observe(o)
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// CheckTextfilePath rejects paths the node_exporter textfile collector
// would ignore.
func CheckTextfilePath(path string) error {
	if !strings.HasSuffix(path, ".prom") {
		return errs.New(errs.InvalidArgument, fmt.Sprintf("metrics file %q must end in .prom", path))
	}
	return nil
}

// WriteTextfile writes the metrics to path. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := CheckTextfilePath(path); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.Artifact, "create metrics directory", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errs.Wrap(errs.Artifact, "write metrics", err)
	}
	return nil
}
