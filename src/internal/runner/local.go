package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gh-nvat/gitops-pvgate/src/pkg/event"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/github"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/models"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/policy"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/report"
)

// RunnerLocal reconciles a recorded push against a fixture directory,
// for rehearsing a gate run without network access. Layout:
//
//	<fixture>/event.json     push event payload
//	<fixture>/trees/<ref>.json  tree snapshot for a ref
//	<fixture>/blobs/<id>     raw blob text
type RunnerLocal struct {
	RunnerBase
}

// make RunnerLocal implement RunnerInterface
var _ RunnerInterface = (*RunnerLocal)(nil)

func NewRunnerLocal(
	ctx context.Context,
	options *Options,
	evaluator *policy.Evaluator,
	reporter report.Reporter,
) (*RunnerLocal, error) {
	if options.LcFixtureDir == "" {
		return nil, fmt.Errorf("local mode requires a fixture directory")
	}

	client := &fixtureClient{dir: options.LcFixtureDir}
	baseRunner, err := NewRunnerBase(ctx, options, client, evaluator, reporter)
	if err != nil {
		return nil, err
	}
	runner := &RunnerLocal{
		RunnerBase: *baseRunner,
	}
	runner.Instance = runner
	return runner, nil
}

func (r *RunnerLocal) LoadPush() (*models.Push, error) {
	return event.Load(filepath.Join(r.Options.LcFixtureDir, "event.json"))
}

// fixtureClient serves trees and blobs from a fixture directory.
type fixtureClient struct {
	dir string
}

// Ensure fixtureClient implements RepoContentClient
var _ github.RepoContentClient = (*fixtureClient)(nil)

func (c *fixtureClient) ResolveTree(ctx context.Context, repo, ref string) ([]models.TreeEntry, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, "trees", ref+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read tree fixture for %s: %w", ref, err)
	}

	var entries []models.TreeEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse tree fixture for %s: %w", ref, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("tree fixture for %s is empty", ref)
	}
	return entries, nil
}

func (c *fixtureClient) FetchContent(ctx context.Context, repo, contentID string) (string, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, "blobs", contentID))
	if err != nil {
		return "", fmt.Errorf("failed to read blob fixture %s: %w", contentID, err)
	}
	return string(data), nil
}
