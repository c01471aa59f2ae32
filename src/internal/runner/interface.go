package runner

import "github.com/gh-nvat/gitops-pvgate/src/pkg/models"

type RunnerInterface interface {
	// Initialize the runner with necessary context and data
	Initialize() error

	// Load the push event to reconcile
	LoadPush() (*models.Push, error)

	// Main routine to process the runner
	Process() error

	// Handling the export
	Output(outcome *models.Outcome) error
}

// Runner wraps the mode-specific runner instance.
type Runner struct {
	RunMode  string
	Instance RunnerInterface
}
