package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "zephyrforge"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	stageDuration  *prom.HistogramVec
	stageResults   *prom.CounterVec
	toolDuration   *prom.HistogramVec
	peripherals    *prom.CounterVec
	deployOutcomes *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg (a fresh
// registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of compile and deploy stages",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	}, []string{"stage"})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.toolDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "tool_duration_seconds",
		Help:      "Duration of external tool invocations",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	}, []string{"tool", "exit_code"})
	pr.peripherals = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "peripheral_allocations_total",
		Help:      "Peripheral requests by bus and whether a hardware controller served them",
	}, []string{"bus", "hardware"})
	pr.deployOutcomes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "deploy_outcomes_total",
		Help:      "Deploy outcomes by strategy",
	}, []string{"strategy", "outcome"})
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.toolDuration, pr.peripherals, pr.deployOutcomes)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveToolDuration(tool string, d time.Duration, exitCode int) {
	if p == nil || p.toolDuration == nil {
		return
	}
	p.toolDuration.WithLabelValues(tool, strconv.Itoa(exitCode)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPeripheralAllocation(bus string, hardware bool) {
	if p == nil || p.peripherals == nil {
		return
	}
	p.peripherals.WithLabelValues(bus, strconv.FormatBool(hardware)).Inc()
}

func (p *PrometheusRecorder) IncDeployOutcome(strategy, outcome string) {
	if p == nil || p.deployOutcomes == nil {
		return
	}
	p.deployOutcomes.WithLabelValues(strategy, outcome).Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
// CLI runs are short-lived, so this replaces a scrape endpoint.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}
