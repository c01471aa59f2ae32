package report

import (
	"fmt"
	"io"
	"os"

	"github.com/gh-nvat/gitops-pvgate/src/pkg/models"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("package", "report")

// Reporter receives per-resource reconciliation events in discovery
// order plus one final failure signal. It renders what the reconciler
// determined; it never decides pass/fail itself.
type Reporter interface {
	// ResourceConfirmed renders an informational record for a deletion
	// that was explicitly confirmed.
	ResourceConfirmed(finding models.Finding)
	// ResourceUnconfirmed renders a warning for a deletion lacking a
	// confirmation.
	ResourceUnconfirmed(finding models.Finding)
	// PolicyDenied renders a warning for a deletion blocked by policy.
	PolicyDenied(denial models.PolicyDenial)
	// RunFailed renders the final failure signal with a human-readable
	// message. Called at most once per run.
	RunFailed(message string)
}

// ActionsReporter renders results as GitHub Actions workflow commands
// so they surface as annotations on the triggering push.
type ActionsReporter struct {
	out io.Writer
}

// Ensure ActionsReporter implements Reporter
var _ Reporter = (*ActionsReporter)(nil)

// NewActionsReporter creates a reporter writing to stdout, where the
// workflow runner picks up annotation commands.
func NewActionsReporter() *ActionsReporter {
	return &ActionsReporter{out: os.Stdout}
}

// NewActionsReporterTo creates a reporter writing to the given writer.
func NewActionsReporterTo(out io.Writer) *ActionsReporter {
	return &ActionsReporter{out: out}
}

func (r *ActionsReporter) ResourceConfirmed(finding models.Finding) {
	logger.WithField("resource", finding.Identity.String()).WithField("path", finding.Path).Info("Deletion confirmed")
	fmt.Fprintf(r.out, "::notice::PersistentVolume %s deletion confirmed (removed %s in %s)\n",
		finding.Identity, finding.Path, finding.CommitID)
}

func (r *ActionsReporter) ResourceUnconfirmed(finding models.Finding) {
	logger.WithField("resource", finding.Identity.String()).WithField("path", finding.Path).Warn("Deletion not confirmed")
	fmt.Fprintf(r.out, "::warning::PersistentVolume %s deleted without confirmation (removed %s in %s)\n",
		finding.Identity, finding.Path, finding.CommitID)
}

func (r *ActionsReporter) PolicyDenied(denial models.PolicyDenial) {
	logger.WithField("resource", denial.Identity.String()).WithField("policy", denial.PolicyID).Warn("Deletion denied by policy")
	fmt.Fprintf(r.out, "::warning::PersistentVolume %s deletion denied by policy %s: %s\n",
		denial.Identity, denial.PolicyID, denial.Message)
}

func (r *ActionsReporter) RunFailed(message string) {
	logger.Error(message)
	fmt.Fprintf(r.out, "::error::%s\n", message)
}
