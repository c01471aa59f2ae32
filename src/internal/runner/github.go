package runner

import (
	"context"
	"fmt"
	"os"

	"github.com/gh-nvat/gitops-pvgate/src/pkg/event"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/github"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/models"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/policy"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/report"
)

// RunnerGitHub reconciles a live push event against the GitHub API.
type RunnerGitHub struct {
	RunnerBase
}

// make RunnerGitHub implement RunnerInterface
var _ RunnerInterface = (*RunnerGitHub)(nil)

func NewRunnerGitHub(
	ctx context.Context,
	options *Options,
	ghclient *github.Client,
	evaluator *policy.Evaluator,
	reporter report.Reporter,
) (*RunnerGitHub, error) {
	if ghclient == nil {
		return nil, fmt.Errorf("GitHub client is not initialized")
	}

	baseRunner, err := NewRunnerBase(ctx, options, ghclient, evaluator, reporter)
	if err != nil {
		return nil, err
	}
	runner := &RunnerGitHub{
		RunnerBase: *baseRunner,
	}
	runner.Instance = runner
	return runner, nil
}

// LoadPush validates the triggering event type and loads the payload
// the workflow runner wrote to the event path.
func (r *RunnerGitHub) LoadPush() (*models.Push, error) {
	if err := event.CheckEventName(os.Getenv("GITHUB_EVENT_NAME")); err != nil {
		return nil, err
	}
	return event.Load(r.Options.EventPath)
}
