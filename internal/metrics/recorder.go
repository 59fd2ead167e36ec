package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for compile and deploy runs. Implementations
// may forward to Prometheus or elsewhere; NoopRecorder is the default.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveToolDuration(tool string, d time.Duration, exitCode int)
	IncPeripheralAllocation(bus string, hardware bool)
	IncDeployOutcome(strategy, outcome string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)     {}
func (NoopRecorder) IncStageResult(string, ResultLabel)             {}
func (NoopRecorder) ObserveToolDuration(string, time.Duration, int) {}
func (NoopRecorder) IncPeripheralAllocation(string, bool)           {}
func (NoopRecorder) IncDeployOutcome(string, string)                {}
