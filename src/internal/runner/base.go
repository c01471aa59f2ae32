package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/gh-nvat/gitops-pvgate/src/pkg/gate"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/github"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/models"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/policy"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/report"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/trace"

	log "github.com/sirupsen/logrus"
)

var logger *log.Entry = log.New().WithFields(log.Fields{
	"package": "runner",
})

type RunnerBase struct {
	Context context.Context
	Options *Options

	RunMode string

	Client    github.RepoContentClient
	Evaluator *policy.Evaluator
	Reporter  report.Reporter

	Instance RunnerInterface
}

func NewRunnerBase(
	ctx context.Context,
	options *Options,
	client github.RepoContentClient,
	evaluator *policy.Evaluator,
	reporter report.Reporter,
) (*RunnerBase, error) {
	runner := &RunnerBase{
		Context:   ctx,
		Options:   options,
		RunMode:   options.RunMode,
		Client:    client,
		Evaluator: evaluator,
		Reporter:  reporter,
	}
	return runner, nil
}

func (r *RunnerBase) Initialize() error {
	logger.Info("Initializing runner: starting...")

	// if any is nil, return error
	if r.Client == nil || r.Evaluator == nil || r.Reporter == nil {
		return fmt.Errorf("content client, evaluator, and reporter are required")
	}

	logger.Info("Initialize runner: Evaluator: loading and validating gate configuration")
	if err := r.Evaluator.LoadAndValidate(); err != nil {
		return fmt.Errorf("failed to load gate config: %w", err)
	}

	logger.Info("Initialize runner: done.")
	return nil
}

func (r *RunnerBase) Process() error {
	logger.Info("Process: starting...")

	ctx, span := trace.StartSpan(r.Context, "reconcile-push")
	defer span.End()

	push, err := r.Instance.LoadPush()
	if err != nil {
		return err
	}
	logger.WithField("ref", push.Ref).WithField("commits", len(push.Commits)).Info("Loaded push event")

	reconciler := gate.NewReconciler(r.Options.GhRepo, r.Client, r.Evaluator, r.Reporter)
	outcome, err := reconciler.Reconcile(ctx, push)

	if errors.Is(err, gate.ErrUnconfirmedDeletion) {
		// The violating resources were already reported; render the
		// final failure signal and still export the outcome.
		r.Reporter.RunFailed(gate.FailureMessage(outcome))
		if outputErr := r.Instance.Output(outcome); outputErr != nil {
			logger.WithField("error", outputErr).Error("Failed to export outcome")
		}
		return err
	}
	if err != nil {
		return err
	}

	if err := r.Instance.Output(outcome); err != nil {
		return err
	}

	logger.Info("Process: done.")
	return nil
}

// Exporting outcome json file to output directory if enabled
func (r *RunnerBase) Output(outcome *models.Outcome) error {
	if !r.Options.EnableExportReport {
		logger.Info("Output: export was disabled")
		return nil
	}
	logger.Info("Output: starting...")

	if err := report.ExportOutcomeJSON(r.Options.OutputDir, outcome); err != nil {
		return err
	}

	logger.Info("Output: done.")
	return nil
}
