// Package metrics counts the digit tests, findings and isolations of a run
// and writes them in the Prometheus text format, for a node exporter
// textfile collector to pick up after each batch run.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/benfordscope/benfordscope/pkg/benford"
)

// Collector implements analysis.Recorder.
type Collector struct {
	registry *prometheus.Registry

	tests      *prometheus.CounterVec
	scores     *prometheus.HistogramVec
	findings   *prometheus.CounterVec
	isolations *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		tests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "benfordscope_tests_total",
			Help: "Digit tests performed by kind, digit position and reliability",
		}, []string{"kind", "digit", "reliability"}),
		scores: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "benfordscope_test_score",
			Help:    "Confidence scores of digit tests with enough samples",
			Buckets: []float64{0.75, 0.9, 0.95, 0.99, 0.999, 0.9999},
		}, []string{"kind"}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "benfordscope_findings_total",
			Help: "Findings recorded by kind",
		}, []string{"kind"}),
		isolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "benfordscope_isolations_total",
			Help: "Sliding-window isolations by outcome",
		}, []string{"outcome"}),
	}
	c.registry.MustRegister(c.tests, c.scores, c.findings, c.isolations)
	return c
}

func (c *Collector) ObserveTest(kind benford.Kind, position int, res benford.Result) {
	c.tests.WithLabelValues(kind.String(), strconv.Itoa(position), res.Reliability().String()).Inc()
	if res.Enough {
		c.scores.WithLabelValues(kind.String()).Observe(res.Score)
	}
}

func (c *Collector) ObserveFinding(f benford.Finding) {
	c.findings.WithLabelValues(f.Kind.String()).Inc()
}

func (c *Collector) ObserveIsolation(iso benford.Isolation) {
	c.isolations.WithLabelValues(outcome(iso)).Inc()
}

func outcome(iso benford.Isolation) string {
	switch {
	case len(iso.Findings) > 0:
		return "reported"
	case iso.Adopted != nil:
		return "localized"
	default:
		return "uniform"
	}
}

// WriteTextfile writes every metric to path atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
