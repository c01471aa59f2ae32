package main

import (
	"fmt"
	"os"

	"github.com/gh-nvat/gitops-pvgate/src/internal/runner"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &runner.Options{}
	var logLevel string
	var traceEnabled bool

	cmd := &cobra.Command{
		Use:   "gitops-pvgate",
		Short: "Push gate preventing unconfirmed PersistentVolume deletions",
		Long: `gitops-pvgate guards k8s GitOps repositories against accidental storage loss.
Every PersistentVolume manifest removed by a push must be confirmed with a
DELETE_PERSISTENT_VOLUME:<namespace>/<name> line in a commit message of that
push; unconfirmed deletions fail the run.`,
		Version: fmt.Sprintf("%s (built: %s)", Version, BuildTime),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level: %s", logLevel)
			}
			log.SetLevel(level)

			return run(cmd.Context(), opts, traceEnabled)
		},
	}

	// Run mode
	cmd.Flags().StringVar(&opts.RunMode, "run-mode", "github", "Run mode: github or local")

	// Common flags
	cmd.Flags().StringVar(&opts.GateConfigPath, "gate-config", "", "Path to gate-config.yaml enabling deletion policies (optional)")
	cmd.Flags().StringVar(&opts.PoliciesPath, "policies-path", "./policies", "Path to directory containing rego policy modules")
	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", "./output", "Output directory for exported reports")
	cmd.Flags().BoolVar(&opts.EnableExportReport, "export-report", false, "Export the reconciliation outcome as report.json")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&traceEnabled, "trace", false, "Record spans and export a trace report")

	// GitHub mode flags
	cmd.Flags().StringVar(&opts.GhRepo, "gh-repo", "", "GitHub repository (e.g., org/repo), defaults to $GITHUB_REPOSITORY [github mode]")
	cmd.Flags().StringVar(&opts.EventPath, "event-path", "", "Path to the push event payload, defaults to $GITHUB_EVENT_PATH [github mode]")

	// Local mode flags
	cmd.Flags().StringVar(&opts.LcFixtureDir, "lc-fixture-dir", "", "Fixture directory with event.json, trees/ and blobs/ [local mode]")

	return cmd
}
