package eventstore

import (
	"encoding/json"
	"errors"
	"testing"
)

const testRunID = "run-123"

func TestNewBuildFailedPayload(t *testing.T) {
	r, err := NewBuildFailed(testRunID, "build_bootloader", errors.New("boom"), 11)
	if err != nil {
		t.Fatalf("NewBuildFailed: %v", err)
	}
	if r.RunID != testRunID || r.Kind != TypeBuildFailed {
		t.Fatalf("unexpected record %s/%s", r.RunID, r.Kind)
	}
	var payload struct {
		Stage    string `json:"stage"`
		Error    string `json:"error"`
		ExitCode int    `json:"exit_code"`
	}
	if err := r.Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.Stage != "build_bootloader" || payload.Error != "boom" || payload.ExitCode != 11 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestNewDeployStartedLabels(t *testing.T) {
	r, err := NewDeployStarted(testRunID, DeployStartedMeta{Strategy: "wired", Target: "/dev/ttyACM0"})
	if err != nil {
		t.Fatalf("NewDeployStarted: %v", err)
	}
	if r.Labels["strategy"] != "wired" {
		t.Errorf("labels = %v", r.Labels)
	}
	if r.At.IsZero() {
		t.Error("expected timestamp")
	}
}

func TestNewRecordMarshalFailureIsClassified(t *testing.T) {
	_, err := newRecord(testRunID, "Broken", map[string]any{"ch": make(chan int)}, nil)
	if err == nil {
		t.Fatal("expected marshal error")
	}
	var ue *json.UnsupportedTypeError
	if !errors.As(err, &ue) {
		t.Errorf("expected wrapped json error, got %v", err)
	}
}
