package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
)

// Record kinds.
const (
	TypeBuildStarted    = "BuildStarted"
	TypeStageCompleted  = "StageCompleted"
	TypeBuildCompleted  = "BuildCompleted"
	TypeBuildFailed     = "BuildFailed"
	TypeDeployStarted   = "DeployStarted"
	TypeDeployCompleted = "DeployCompleted"
	TypeDeployFailed    = "DeployFailed"
)

// BuildStartedMeta describes the project a compile run is for.
type BuildStartedMeta struct {
	Project        string `json:"project"`
	Board          string `json:"board"`
	SourceRevision string `json:"source_revision,omitempty"`
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(runID string, meta BuildStartedMeta) (Record, error) {
	return newRecord(runID, TypeBuildStarted, meta, map[string]string{"board": meta.Board})
}

// NewStageCompleted records one successful pipeline stage.
func NewStageCompleted(runID, stage string, duration time.Duration) (Record, error) {
	return newRecord(runID, TypeStageCompleted, map[string]any{
		"stage":       stage,
		"duration_ms": duration.Milliseconds(),
	}, nil)
}

// NewBuildCompleted records the artifacts of a finished compile.
func NewBuildCompleted(runID, mcubootRevision string, artifacts map[string]string) (Record, error) {
	return newRecord(runID, TypeBuildCompleted, map[string]any{
		"mcuboot_revision": mcubootRevision,
		"artifacts":        artifacts,
	}, nil)
}

// NewBuildFailed records the stage a compile stopped at.
func NewBuildFailed(runID, stage string, cause error, exitCode int) (Record, error) {
	return newRecord(runID, TypeBuildFailed, failurePayload(stage, cause, exitCode), nil)
}

// DeployStartedMeta describes an upload attempt.
type DeployStartedMeta struct {
	Project  string `json:"project"`
	Board    string `json:"board"`
	Strategy string `json:"strategy"`
	Target   string `json:"target,omitempty"`
}

// NewDeployStarted creates a DeployStarted event.
func NewDeployStarted(runID string, meta DeployStartedMeta) (Record, error) {
	return newRecord(runID, TypeDeployStarted, meta, map[string]string{"strategy": meta.Strategy})
}

// NewDeployCompleted records how an upload ended. status is "completed" or
// "awaiting_reset".
func NewDeployCompleted(runID, strategy, status, address string) (Record, error) {
	return newRecord(runID, TypeDeployCompleted, map[string]any{
		"strategy": strategy,
		"status":   status,
		"address":  address,
	}, nil)
}

// NewDeployFailed records a failed upload.
func NewDeployFailed(runID, strategy string, cause error, exitCode int) (Record, error) {
	p := failurePayload("deploy", cause, exitCode)
	p["strategy"] = strategy
	return newRecord(runID, TypeDeployFailed, p, nil)
}

func failurePayload(stage string, cause error, exitCode int) map[string]any {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return map[string]any{
		"stage":     stage,
		"error":     msg,
		"exit_code": exitCode,
	}
}

func newRecord(runID, kind string, payload any, labels map[string]string) (Record, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Record{}, errors.WrapError(err, errors.CategoryEventStore, "failed to marshal "+kind+" payload").
			WithContext("run_id", runID).
			Build()
	}
	return Record{
		RunID:   runID,
		Kind:    kind,
		At:      time.Now(),
		Payload: data,
		Labels:  labels,
	}, nil
}
