package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Run status values.
const (
	RunStatusRunning       = "running"
	RunStatusCompleted     = "completed"
	RunStatusAwaitingReset = "awaiting_reset"
	RunStatusFailed        = "failed"
)

// Run kinds.
const (
	RunKindCompile = "compile"
	RunKindUpload  = "upload"
	RunKindRun     = "run"
)

// RunSummary is the read model for one compile, upload or compile+upload run.
type RunSummary struct {
	RunID           string            `json:"run_id"`
	Kind            string            `json:"kind"`
	Project         string            `json:"project,omitempty"`
	Board           string            `json:"board,omitempty"`
	Status          string            `json:"status"`
	StartedAt       time.Time         `json:"started_at"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	Duration        time.Duration     `json:"duration,omitempty"`
	Stages          []string          `json:"stages,omitempty"`
	SourceRevision  string            `json:"source_revision,omitempty"`
	MCUbootRevision string            `json:"mcuboot_revision,omitempty"`
	Artifacts       map[string]string `json:"artifacts,omitempty"`
	Strategy        string            `json:"strategy,omitempty"`
	Address         string            `json:"address,omitempty"`
	ErrorStage      string            `json:"error_stage,omitempty"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	ExitCode        int               `json:"exit_code,omitempty"`
}

// RunHistoryProjection maintains an in-memory view of run history,
// reconstructed from the event store.
type RunHistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	runs     map[string]*RunSummary // runID -> summary
	history  []*RunSummary          // newest first
	maxSize  int
	lastSync time.Time
}

// NewRunHistoryProjection creates a projection backed by store.
func NewRunHistoryProjection(store Store, maxHistorySize int) *RunHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &RunHistoryProjection{
		store:   store,
		runs:    make(map[string]*RunSummary),
		history: make([]*RunSummary, 0, maxHistorySize),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from the records of the newest runs.
func (p *RunHistoryProjection) Rebuild(ctx context.Context) error {
	records, err := p.store.Recent(ctx, p.maxSize)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.runs = make(map[string]*RunSummary)
	p.history = make([]*RunSummary, 0, p.maxSize)
	for _, rec := range records {
		p.applyLocked(rec)
	}

	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneRunsLocked()

	p.lastSync = time.Now()
	return nil
}

// Apply folds one record in as it is appended.
func (p *RunHistoryProjection) Apply(rec Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(rec)
}

func (p *RunHistoryProjection) applyLocked(rec Record) {
	runID := rec.RunID
	if runID == "" {
		return
	}

	summary, exists := p.runs[runID]
	if !exists {
		summary = &RunSummary{
			RunID:     runID,
			Status:    RunStatusRunning,
			StartedAt: rec.At,
		}
		p.runs[runID] = summary
	}

	switch rec.Kind {
	case TypeBuildStarted:
		var meta BuildStartedMeta
		if err := rec.Decode(&meta); err == nil {
			summary.Project = meta.Project
			summary.Board = meta.Board
			summary.SourceRevision = meta.SourceRevision
		}
		summary.Kind = RunKindCompile
		summary.Status = RunStatusRunning

	case TypeStageCompleted:
		var payload struct {
			Stage string `json:"stage"`
		}
		if err := rec.Decode(&payload); err == nil {
			summary.Stages = append(summary.Stages, payload.Stage)
		}

	case TypeBuildCompleted:
		var payload struct {
			MCUbootRevision string            `json:"mcuboot_revision"`
			Artifacts       map[string]string `json:"artifacts"`
		}
		if err := rec.Decode(&payload); err == nil {
			summary.MCUbootRevision = payload.MCUbootRevision
			summary.Artifacts = payload.Artifacts
		}
		p.finishLocked(summary, rec.At, RunStatusCompleted)

	case TypeDeployStarted:
		var meta DeployStartedMeta
		if err := rec.Decode(&meta); err == nil {
			if summary.Project == "" {
				summary.Project = meta.Project
				summary.Board = meta.Board
			}
			summary.Strategy = meta.Strategy
		}
		if summary.Kind == RunKindCompile {
			summary.Kind = RunKindRun
		} else {
			summary.Kind = RunKindUpload
		}
		summary.Status = RunStatusRunning
		summary.CompletedAt = nil

	case TypeDeployCompleted:
		var payload struct {
			Strategy string `json:"strategy"`
			Status   string `json:"status"`
			Address  string `json:"address"`
		}
		status := RunStatusCompleted
		if err := rec.Decode(&payload); err == nil {
			summary.Strategy = payload.Strategy
			summary.Address = payload.Address
			if payload.Status != "" {
				status = payload.Status
			}
		}
		p.finishLocked(summary, rec.At, status)

	case TypeBuildFailed, TypeDeployFailed:
		var payload struct {
			Stage    string `json:"stage"`
			Error    string `json:"error"`
			ExitCode int    `json:"exit_code"`
		}
		if err := rec.Decode(&payload); err == nil {
			summary.ErrorStage = payload.Stage
			summary.ErrorMessage = payload.Error
			summary.ExitCode = payload.ExitCode
		}
		p.finishLocked(summary, rec.At, RunStatusFailed)
	}
}

func (p *RunHistoryProjection) finishLocked(summary *RunSummary, at time.Time, status string) {
	summary.CompletedAt = &at
	summary.Duration = at.Sub(summary.StartedAt)
	summary.Status = status
	p.addToHistoryLocked(summary)
}

// addToHistoryLocked adds a finished run to history if not already present.
func (p *RunHistoryProjection) addToHistoryLocked(summary *RunSummary) {
	for _, h := range p.history {
		if h.RunID == summary.RunID {
			return
		}
	}

	p.history = append([]*RunSummary{summary}, p.history...)
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneRunsLocked()
}

// pruneRunsLocked drops finished runs that fell out of the bounded history.
// Caller must hold p.mu (write lock).
func (p *RunHistoryProjection) pruneRunsLocked() {
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		keep[h.RunID] = struct{}{}
	}
	for id, summary := range p.runs {
		if summary.Status == RunStatusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.runs, id)
		}
	}
}

// GetHistory returns copies of the finished runs, newest first.
func (p *RunHistoryProjection) GetHistory() []RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]RunSummary, len(p.history))
	for i, h := range p.history {
		result[i] = *h
	}
	return result
}

// GetRun returns the summary for one run.
func (p *RunHistoryProjection) GetRun(runID string) (RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.runs[runID]
	if !exists {
		return RunSummary{}, false
	}
	return *summary, true
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *RunHistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
