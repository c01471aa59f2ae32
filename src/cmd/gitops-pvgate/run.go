package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gh-nvat/gitops-pvgate/src/internal/runner"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/github"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/policy"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/report"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/trace"
)

const (
	RUN_MODE_GITHUB = "github"
	RUN_MODE_LOCAL  = "local"
)

// Do all initialization steps here:
// 1. Initialize the evaluator and reporter
// 2. Initialize the runner instance for the selected mode
// 3. Load and validate the gate configuration
// 4. Return the runner instance
func initialize(ctx context.Context, opts *runner.Options) (*runner.Runner, error) {
	evaluator := policy.NewEvaluator(opts.GateConfigPath, opts.PoliciesPath)
	reporter := report.NewActionsReporter()

	var runnerInstance runner.RunnerInterface
	var err error
	switch opts.RunMode {
	case RUN_MODE_GITHUB:
		var ghClient *github.Client
		ghClient, err = github.NewClient()
		if err != nil {
			return nil, fmt.Errorf("GitHub authentication failed: %w", err)
		}
		runnerInstance, err = runner.NewRunnerGitHub(ctx, opts, ghClient, evaluator, reporter)
	case RUN_MODE_LOCAL:
		runnerInstance, err = runner.NewRunnerLocal(ctx, opts, evaluator, reporter)
	default:
		return nil, fmt.Errorf("invalid run mode: %s", opts.RunMode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	if err := runnerInstance.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize runner: %w", err)
	}

	return &runner.Runner{
		RunMode:  opts.RunMode,
		Instance: runnerInstance,
	}, nil
}

func run(ctx context.Context, opts *runner.Options, traceEnabled bool) error {
	if err := validateOptions(opts); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	shutdown, err := trace.InitTracer("gitops-pvgate", traceEnabled, opts.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer shutdown()

	gateRunner, err := initialize(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	return gateRunner.Instance.Process()
}

func validateOptions(opts *runner.Options) error {
	// Validate run mode
	if opts.RunMode != RUN_MODE_GITHUB && opts.RunMode != RUN_MODE_LOCAL {
		return fmt.Errorf("run-mode must be 'github' or 'local', got: %s", opts.RunMode)
	}

	// Validate mode-specific options
	if opts.RunMode == RUN_MODE_LOCAL {
		if opts.LcFixtureDir == "" {
			return fmt.Errorf("local mode requires --lc-fixture-dir")
		}
		return nil
	}

	// GitHub mode: fall back to the workflow environment
	if opts.GhRepo == "" {
		opts.GhRepo = os.Getenv("GITHUB_REPOSITORY")
	}
	if opts.EventPath == "" {
		opts.EventPath = os.Getenv("GITHUB_EVENT_PATH")
	}

	if opts.GhRepo == "" {
		return fmt.Errorf("github mode requires --gh-repo or GITHUB_REPOSITORY")
	}
	if opts.EventPath == "" {
		return fmt.Errorf("github mode requires --event-path or GITHUB_EVENT_PATH")
	}

	return nil
}
