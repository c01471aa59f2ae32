package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gh-nvat/gitops-pvgate/src/pkg/models"
)

// ExportOutcomeJSON writes the reconciliation outcome to
// <outputDir>/report.json for consumption by later workflow steps.
func ExportOutcomeJSON(outputDir string, outcome *models.Outcome) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}

	filePath := filepath.Join(outputDir, "report.json")
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		logger.WithField("filePath", filePath).WithField("error", err).Error("Failed to write outcome to file")
		return err
	}

	logger.WithField("filePath", filePath).Info("Written outcome to file")
	return nil
}
