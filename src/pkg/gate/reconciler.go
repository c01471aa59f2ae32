package gate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gh-nvat/gitops-pvgate/src/pkg/confirm"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/github"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/manifest"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/models"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/policy"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/report"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/trace"

	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("package", "gate")

// ErrUnconfirmedDeletion marks a run rejected because a commit deleted
// PersistentVolumes without confirmation (or against policy). Distinct
// from fatal errors: the violating resources were already reported.
var ErrUnconfirmedDeletion = errors.New("unconfirmed PersistentVolume deletion")

// Reconciler matches PersistentVolume deletions of one push against
// the confirmations pooled from its commit messages.
type Reconciler struct {
	repo      string
	client    github.RepoContentClient
	evaluator policy.DeletionPolicyEvaluator
	reporter  report.Reporter
}

// NewReconciler creates a reconciler for one repository. All
// collaborators are injected; tests substitute fakes.
func NewReconciler(repo string, client github.RepoContentClient, evaluator policy.DeletionPolicyEvaluator, reporter report.Reporter) *Reconciler {
	return &Reconciler{
		repo:      repo,
		client:    client,
		evaluator: evaluator,
		reporter:  reporter,
	}
}

// Reconcile processes the push's commits in order. The confirmation
// set is pooled from every commit message before any commit is
// inspected and is read-only afterwards.
//
// A commit that yields any unconfirmed deletion (or policy denial)
// ends the run after all of its own removed files were reported; later
// commits are never resolved.
func (r *Reconciler) Reconcile(ctx context.Context, push *models.Push) (*models.Outcome, error) {
	messages := make([]string, 0, len(push.Commits))
	for _, commit := range push.Commits {
		messages = append(messages, commit.Message)
	}

	outcome := &models.Outcome{
		Confirmations: confirm.ParseAll(messages),
	}
	logger.WithField("confirmations", len(outcome.Confirmations)).Info("Built confirmation set")

	for _, commit := range push.Commits {
		commitCtx, span := trace.StartSpan(ctx, fmt.Sprintf("commit %s", github.ShortSHA(commit.ID)))
		err := r.reconcileCommit(commitCtx, commit, outcome)
		span.End()
		if err != nil {
			return nil, err
		}

		if outcome.HasUnconfirmed || len(outcome.PolicyDenials) > 0 {
			return outcome, ErrUnconfirmedDeletion
		}
	}

	return outcome, nil
}

func (r *Reconciler) reconcileCommit(ctx context.Context, commit models.Commit, outcome *models.Outcome) error {
	logger.WithField("commit", commit.ID).WithField("removed", len(commit.Removed)).Info("Reconciling commit")

	entries, err := r.client.ResolveTree(ctx, r.repo, commit.TreeRef)
	if err != nil {
		return fmt.Errorf("commit %s: %w", commit.ID, err)
	}

	treeIndex := make(map[string]string, len(entries))
	for _, entry := range entries {
		treeIndex[entry.Path] = entry.SHA
	}

	for _, path := range commit.Removed {
		if !manifest.IsManifestPath(path) {
			continue
		}

		contentID, ok := treeIndex[path]
		if !ok {
			// The push payload and the tree disagree; never skip this.
			return fmt.Errorf("commit %s: removed path %s not found in pre-change tree %s", commit.ID, path, commit.TreeRef)
		}

		content, err := r.client.FetchContent(ctx, r.repo, contentID)
		if err != nil {
			return fmt.Errorf("commit %s: %w", commit.ID, err)
		}

		documents, err := manifest.Parse(content)
		if err != nil {
			return fmt.Errorf("commit %s: file %s: %w", commit.ID, path, err)
		}

		for _, document := range documents {
			if document.Kind() != manifest.KindPersistentVolume {
				continue
			}

			if err := r.reconcileDocument(ctx, commit, path, document, outcome); err != nil {
				return fmt.Errorf("commit %s: file %s: %w", commit.ID, path, err)
			}
		}
	}

	return nil
}

func (r *Reconciler) reconcileDocument(ctx context.Context, commit models.Commit, path string, document manifest.Document, outcome *models.Outcome) error {
	identity, err := document.Identity()
	if err != nil {
		return err
	}

	finding := models.Finding{
		Identity: identity,
		Path:     path,
		CommitID: commit.ID,
	}

	if isConfirmed(outcome.Confirmations, identity) {
		finding.Confirmed = true
		outcome.Confirmed = append(outcome.Confirmed, finding)
		r.reporter.ResourceConfirmed(finding)
	} else {
		outcome.Unconfirmed = append(outcome.Unconfirmed, finding)
		outcome.HasUnconfirmed = true
		r.reporter.ResourceUnconfirmed(finding)
	}

	if r.evaluator != nil && r.evaluator.Enabled() {
		doc, err := document.Content()
		if err != nil {
			return err
		}
		denials, err := r.evaluator.Evaluate(ctx, doc, identity)
		if err != nil {
			return err
		}
		for _, denial := range denials {
			outcome.PolicyDenials = append(outcome.PolicyDenials, denial)
			r.reporter.PolicyDenied(denial)
		}
	}

	return nil
}

// isConfirmed matches by value of (namespace, name), never by object
// identity.
func isConfirmed(confirmations []models.Confirmation, identity models.ResourceIdentity) bool {
	for _, confirmation := range confirmations {
		if confirmation.Matches(identity) {
			return true
		}
	}
	return false
}

// FailureMessage renders the final failure signal for a rejected run.
func FailureMessage(outcome *models.Outcome) string {
	var reasons []string

	if len(outcome.Unconfirmed) > 0 {
		identities := make([]string, 0, len(outcome.Unconfirmed))
		for _, finding := range outcome.Unconfirmed {
			identities = append(identities, finding.Identity.String())
		}
		reasons = append(reasons, fmt.Sprintf("%d PersistentVolume deletion(s) without confirmation: %s",
			len(outcome.Unconfirmed), strings.Join(identities, ", ")))
	}

	if len(outcome.PolicyDenials) > 0 {
		reasons = append(reasons, fmt.Sprintf("%d deletion policy denial(s)", len(outcome.PolicyDenials)))
	}

	return "push rejected: " + strings.Join(reasons, "; ")
}
