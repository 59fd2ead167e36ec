package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/zephyrforge/internal/config"
	"git.home.luguber.info/inful/zephyrforge/internal/deploy"
	"git.home.luguber.info/inful/zephyrforge/internal/project"
)

// Service is the canonical interface for compiling and uploading firmware.
type Service interface {
	// Build lays out the project and compiles the application and bootloader.
	Build(ctx context.Context, req BuildRequest) (*BuildResult, error)
	// Deploy uploads the images of a previous build.
	Deploy(ctx context.Context, req DeployRequest) (*DeployResult, error)
}

// BuildRequest contains the inputs of one compile.
type BuildRequest struct {
	Config *config.Config
	// RunID groups a compile with the upload that follows it; a new id is
	// generated when empty.
	RunID string
}

// BuildResult is the outcome of a compile.
type BuildResult struct {
	RunID           string
	Status          BuildStatus
	Board           string
	Paths           project.Paths
	MCUbootRevision string
	// Artifacts maps image names to their paths.
	Artifacts map[string]string
	// FailedStage is the stage that stopped the build, if any.
	FailedStage string
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}

// DeployRequest contains the inputs of one upload.
type DeployRequest struct {
	Config *config.Config
	// Target overrides upload.device: a serial device, a host address, or
	// empty for network discovery.
	Target string
	RunID  string
}

// DeployResult is the outcome of an upload.
type DeployResult struct {
	RunID     string
	Strategy  deploy.Strategy
	Status    deploy.Status
	Address   string
	StartTime time.Time
	Duration  time.Duration
}

// BuildStatus represents the outcome of a compile.
type BuildStatus string

const (
	BuildStatusSuccess   BuildStatus = "success"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess reports whether the compile produced both images.
func (s BuildStatus) IsSuccess() bool { return s == BuildStatusSuccess }
