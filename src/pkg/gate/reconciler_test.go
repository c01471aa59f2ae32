package gate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gh-nvat/gitops-pvgate/src/pkg/models"
)

const testRepo = "acme/gitops-manifests"

// fakeRepoClient implements github.RepoContentClient from in-memory
// trees and blobs, counting calls per ref.
type fakeRepoClient struct {
	trees map[string][]models.TreeEntry
	blobs map[string]string

	resolvedRefs []string
	fetchCount   int
}

func (f *fakeRepoClient) ResolveTree(ctx context.Context, repo, ref string) ([]models.TreeEntry, error) {
	f.resolvedRefs = append(f.resolvedRefs, ref)
	entries, ok := f.trees[ref]
	if !ok {
		return nil, errors.New("unknown ref " + ref)
	}
	return entries, nil
}

func (f *fakeRepoClient) FetchContent(ctx context.Context, repo, contentID string) (string, error) {
	f.fetchCount++
	content, ok := f.blobs[contentID]
	if !ok {
		return "", errors.New("unknown blob " + contentID)
	}
	return content, nil
}

// recordingReporter captures reported events in order.
type recordingReporter struct {
	confirmed   []models.Finding
	unconfirmed []models.Finding
	denials     []models.PolicyDenial
	failures    []string
}

func (r *recordingReporter) ResourceConfirmed(f models.Finding)   { r.confirmed = append(r.confirmed, f) }
func (r *recordingReporter) ResourceUnconfirmed(f models.Finding) { r.unconfirmed = append(r.unconfirmed, f) }
func (r *recordingReporter) PolicyDenied(d models.PolicyDenial)   { r.denials = append(r.denials, d) }
func (r *recordingReporter) RunFailed(msg string)                 { r.failures = append(r.failures, msg) }

const pv1Manifest = "kind: PersistentVolume\nmetadata:\n  name: pv-1\n  namespace: prod\n"

func singleCommitPush(message string) *models.Push {
	commit := models.Commit{
		ID:      "head1",
		Message: message,
		Removed: []string{"volumes/pv-1.yaml"},
		TreeRef: "base0",
	}
	return &models.Push{
		Ref:        "refs/heads/main",
		Before:     "base0",
		After:      "head1",
		Commits:    []models.Commit{commit},
		HeadCommit: &commit,
	}
}

func newFakeClient() *fakeRepoClient {
	return &fakeRepoClient{
		trees: map[string][]models.TreeEntry{
			"base0": {
				{Path: "volumes/pv-1.yaml", SHA: "blob-pv1"},
				{Path: "README.md", SHA: "blob-readme"},
			},
		},
		blobs: map[string]string{
			"blob-pv1": pv1Manifest,
		},
	}
}

func TestReconcileConfirmedDeletion(t *testing.T) {
	client := newFakeClient()
	reporter := &recordingReporter{}
	reconciler := NewReconciler(testRepo, client, nil, reporter)

	outcome, err := reconciler.Reconcile(context.Background(), singleCommitPush("DELETE_PERSISTENT_VOLUME: prod/pv-1"))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if outcome.HasUnconfirmed {
		t.Error("HasUnconfirmed = true for confirmed deletion")
	}
	if len(reporter.confirmed) != 1 || len(reporter.unconfirmed) != 0 {
		t.Fatalf("events: confirmed=%d unconfirmed=%d", len(reporter.confirmed), len(reporter.unconfirmed))
	}
	want := models.ResourceIdentity{Namespace: "prod", Name: "pv-1"}
	if reporter.confirmed[0].Identity != want {
		t.Errorf("confirmed identity = %v, want %v", reporter.confirmed[0].Identity, want)
	}
}

func TestReconcileUnconfirmedDeletionFails(t *testing.T) {
	client := newFakeClient()
	reporter := &recordingReporter{}
	reconciler := NewReconciler(testRepo, client, nil, reporter)

	outcome, err := reconciler.Reconcile(context.Background(), singleCommitPush("remove stale volume"))
	if !errors.Is(err, ErrUnconfirmedDeletion) {
		t.Fatalf("Reconcile() error = %v, want ErrUnconfirmedDeletion", err)
	}

	if !outcome.HasUnconfirmed {
		t.Error("HasUnconfirmed = false")
	}
	if len(reporter.unconfirmed) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(reporter.unconfirmed))
	}
	if got := reporter.unconfirmed[0].Identity.String(); got != "prod/pv-1" {
		t.Errorf("unconfirmed identity = %q, want prod/pv-1", got)
	}

	msg := FailureMessage(outcome)
	if !strings.Contains(msg, "prod/pv-1") {
		t.Errorf("FailureMessage() = %q, missing violating identity", msg)
	}
}

func TestReconcileMatchesByValueNotIdentity(t *testing.T) {
	// The confirmation and the parsed identity are independently
	// constructed values; only field-wise comparison can match them.
	client := newFakeClient()
	reconciler := NewReconciler(testRepo, client, nil, &recordingReporter{})

	push := singleCommitPush("DELETE_PERSISTENT_VOLUME:prod/pv-1")
	if _, err := reconciler.Reconcile(context.Background(), push); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
}

func TestReconcileConfirmationPooledAcrossCommits(t *testing.T) {
	// The confirmation lives in a different commit than the deletion.
	commits := []models.Commit{
		{ID: "c1", Message: "DELETE_PERSISTENT_VOLUME:prod/pv-1", Removed: nil, TreeRef: "base0"},
		{ID: "c2", Message: "remove it", Removed: []string{"volumes/pv-1.yaml"}, TreeRef: "c1"},
	}
	client := newFakeClient()
	client.trees["c1"] = client.trees["base0"]

	reporter := &recordingReporter{}
	reconciler := NewReconciler(testRepo, client, nil, reporter)

	push := &models.Push{Before: "base0", Commits: commits, HeadCommit: &commits[1]}
	if _, err := reconciler.Reconcile(context.Background(), push); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(reporter.confirmed) != 1 {
		t.Errorf("expected 1 confirmed event, got %d", len(reporter.confirmed))
	}
}

func TestReconcileStopsAfterFirstViolatingCommit(t *testing.T) {
	commits := []models.Commit{
		{ID: "c1", Message: "oops", Removed: []string{"volumes/pv-1.yaml"}, TreeRef: "base0"},
		{ID: "c2", Message: "DELETE_PERSISTENT_VOLUME:prod/pv-2", Removed: []string{"volumes/pv-2.yaml"}, TreeRef: "c1"},
	}
	client := newFakeClient()
	client.trees["c1"] = []models.TreeEntry{{Path: "volumes/pv-2.yaml", SHA: "blob-pv2"}}
	client.blobs["blob-pv2"] = "kind: PersistentVolume\nmetadata:\n  name: pv-2\n  namespace: prod\n"

	reconciler := NewReconciler(testRepo, client, nil, &recordingReporter{})

	push := &models.Push{Before: "base0", Commits: commits, HeadCommit: &commits[1]}
	_, err := reconciler.Reconcile(context.Background(), push)
	if !errors.Is(err, ErrUnconfirmedDeletion) {
		t.Fatalf("Reconcile() error = %v, want ErrUnconfirmedDeletion", err)
	}

	// Note the pooled confirmation for pv-2 exists, yet the second
	// commit's tree must never be resolved.
	if len(client.resolvedRefs) != 1 || client.resolvedRefs[0] != "base0" {
		t.Errorf("resolved refs = %v, want [base0] only", client.resolvedRefs)
	}
}

func TestReconcileSkipsNonManifestPaths(t *testing.T) {
	commit := models.Commit{
		ID:      "head1",
		Message: "docs",
		Removed: []string{"README.md", "scripts/cleanup.sh"},
		TreeRef: "base0",
	}
	client := newFakeClient()
	reconciler := NewReconciler(testRepo, client, nil, &recordingReporter{})

	push := &models.Push{Before: "base0", Commits: []models.Commit{commit}, HeadCommit: &commit}
	if _, err := reconciler.Reconcile(context.Background(), push); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if client.fetchCount != 0 {
		t.Errorf("fetchCount = %d, non-manifest paths must never be fetched", client.fetchCount)
	}
}

func TestReconcileIgnoresOtherKinds(t *testing.T) {
	client := newFakeClient()
	client.blobs["blob-pv1"] = "kind: ConfigMap\nmetadata:\n  name: settings\n  namespace: prod\n"

	reporter := &recordingReporter{}
	reconciler := NewReconciler(testRepo, client, nil, reporter)

	if _, err := reconciler.Reconcile(context.Background(), singleCommitPush("cleanup")); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(reporter.confirmed)+len(reporter.unconfirmed) != 0 {
		t.Error("non-PersistentVolume documents must not produce events")
	}
}

func TestReconcileMissingTreeEntryIsFatal(t *testing.T) {
	client := newFakeClient()
	client.trees["base0"] = []models.TreeEntry{{Path: "README.md", SHA: "blob-readme"}}

	reconciler := NewReconciler(testRepo, client, nil, &recordingReporter{})

	_, err := reconciler.Reconcile(context.Background(), singleCommitPush("DELETE_PERSISTENT_VOLUME:prod/pv-1"))
	if err == nil || errors.Is(err, ErrUnconfirmedDeletion) {
		t.Fatalf("Reconcile() error = %v, want fatal integrity error", err)
	}
}

func TestReconcileMissingMetadataIsFatal(t *testing.T) {
	client := newFakeClient()
	client.blobs["blob-pv1"] = "kind: PersistentVolume\nspec:\n  capacity:\n    storage: 1Gi\n"

	reconciler := NewReconciler(testRepo, client, nil, &recordingReporter{})

	_, err := reconciler.Reconcile(context.Background(), singleCommitPush("DELETE_PERSISTENT_VOLUME:prod/pv-1"))
	if err == nil || errors.Is(err, ErrUnconfirmedDeletion) {
		t.Fatalf("Reconcile() error = %v, want fatal metadata error", err)
	}
}

func TestReconcileMalformedManifestIsFatal(t *testing.T) {
	client := newFakeClient()
	client.blobs["blob-pv1"] = "kind: [unclosed\n"

	reconciler := NewReconciler(testRepo, client, nil, &recordingReporter{})

	_, err := reconciler.Reconcile(context.Background(), singleCommitPush("cleanup"))
	if err == nil || errors.Is(err, ErrUnconfirmedDeletion) {
		t.Fatalf("Reconcile() error = %v, want fatal parse error", err)
	}
}

func TestReconcileMultiDocumentFile(t *testing.T) {
	client := newFakeClient()
	client.blobs["blob-pv1"] = pv1Manifest + "---\n" +
		"kind: PersistentVolume\nmetadata:\n  name: pv-2\n  namespace: prod\n"

	reporter := &recordingReporter{}
	reconciler := NewReconciler(testRepo, client, nil, reporter)

	outcome, err := reconciler.Reconcile(context.Background(), singleCommitPush("DELETE_PERSISTENT_VOLUME:prod/pv-1"))
	if !errors.Is(err, ErrUnconfirmedDeletion) {
		t.Fatalf("Reconcile() error = %v, want ErrUnconfirmedDeletion", err)
	}

	// Both documents were reconciled, in document order, before the
	// commit failed the run.
	if len(reporter.confirmed) != 1 || len(reporter.unconfirmed) != 1 {
		t.Fatalf("events: confirmed=%d unconfirmed=%d", len(reporter.confirmed), len(reporter.unconfirmed))
	}
	if len(outcome.Confirmed) != 1 || len(outcome.Unconfirmed) != 1 {
		t.Errorf("outcome: confirmed=%d unconfirmed=%d", len(outcome.Confirmed), len(outcome.Unconfirmed))
	}
}
