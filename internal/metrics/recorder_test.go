package metrics

import (
	"sync"
	"time"
)

// testRecorder counts calls; it documents the Recorder contract for callers'
// tests and is exercised by TestRecorderImplementations.
type testRecorder struct {
	mu       sync.Mutex
	stages   map[string]int
	results  map[string]map[ResultLabel]int
	tools    map[string]int
	periphs  map[string]int
	outcomes map[string]int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		stages:   map[string]int{},
		results:  map[string]map[ResultLabel]int{},
		tools:    map[string]int{},
		periphs:  map[string]int{},
		outcomes: map[string]int{},
	}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stages[stage]++
}

func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.results[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.results[stage] = m
	}
	m[result]++
}

func (t *testRecorder) ObserveToolDuration(tool string, _ time.Duration, _ int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tools[tool]++
}

func (t *testRecorder) IncPeripheralAllocation(bus string, _ bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.periphs[bus]++
}

func (t *testRecorder) IncDeployOutcome(strategy, outcome string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes[strategy+"/"+outcome]++
}
