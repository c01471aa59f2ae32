package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gh-nvat/gitops-pvgate/src/pkg/config"
	"github.com/gh-nvat/gitops-pvgate/src/pkg/models"
	"github.com/open-policy-agent/opa/rego"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("package", "policy")

// DenyQuery is the rego entrypoint every deletion policy must expose.
const DenyQuery = "data.pvgate.deny"

// DeletionPolicyEvaluator defines the interface for policy evaluation
// over to-be-deleted PersistentVolume documents.
type DeletionPolicyEvaluator interface {
	// LoadAndValidate loads and validates the gate configuration and
	// checks that every referenced policy module exists.
	LoadAndValidate() error
	// Enabled reports whether any policies are configured.
	Enabled() bool
	// Evaluate runs all configured policies against one deleted
	// PersistentVolume document.
	Evaluate(ctx context.Context, doc map[string]interface{}, id models.ResourceIdentity) ([]models.PolicyDenial, error)
}

// Evaluator handles deletion policy evaluation
type Evaluator struct {
	loader       *config.Loader
	configPath   string
	policiesPath string

	cfg *config.GateConfig
}

// Ensure Evaluator implements DeletionPolicyEvaluator
var _ DeletionPolicyEvaluator = (*Evaluator)(nil)

// NewEvaluator creates a new deletion policy evaluator. An empty
// configPath disables the policy stage entirely.
func NewEvaluator(configPath, policiesPath string) *Evaluator {
	return &Evaluator{
		loader:       config.NewLoader(),
		configPath:   configPath,
		policiesPath: policiesPath,
	}
}

// LoadAndValidate loads and validates the gate configuration
func (e *Evaluator) LoadAndValidate() error {
	if e.configPath == "" {
		logger.Info("No gate config given, deletion policies disabled")
		return nil
	}

	cfg, err := e.loader.LoadGateConfig(e.configPath)
	if err != nil {
		return err
	}
	if err := e.loader.ValidateGateConfig(cfg); err != nil {
		return err
	}

	for id, policy := range cfg.Policies {
		if !strings.HasSuffix(policy.FilePath, ".rego") {
			return fmt.Errorf("policy %s: unsupported file extension (must be .rego)", id)
		}
		policyPath := filepath.Join(e.policiesPath, policy.FilePath)
		if _, err := os.Stat(policyPath); os.IsNotExist(err) {
			return fmt.Errorf("policy %s: file not found: %s", id, policyPath)
		}
	}

	e.cfg = cfg
	logger.WithField("policies", len(cfg.Policies)).Info("Loaded deletion policies")
	return nil
}

// Enabled reports whether any policies are configured.
func (e *Evaluator) Enabled() bool {
	return e.cfg != nil && len(e.cfg.Policies) > 0
}

// Evaluate runs every configured policy against one deleted
// PersistentVolume document and returns the resulting denials.
func (e *Evaluator) Evaluate(ctx context.Context, doc map[string]interface{}, id models.ResourceIdentity) ([]models.PolicyDenial, error) {
	if !e.Enabled() {
		return nil, nil
	}

	var denials []models.PolicyDenial
	for policyID, policy := range e.cfg.Policies {
		messages, err := e.evaluatePolicy(ctx, policyID, policy, doc)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", policyID, err)
		}
		for _, message := range messages {
			denials = append(denials, models.PolicyDenial{
				PolicyID: policyID,
				Identity: id,
				Message:  message,
			})
		}
	}

	return denials, nil
}

// evaluatePolicy evaluates a single policy module against one document
func (e *Evaluator) evaluatePolicy(ctx context.Context, id string, policy config.PolicyConfig, doc map[string]interface{}) ([]string, error) {
	policyPath := filepath.Join(e.policiesPath, policy.FilePath)
	policyContent, err := os.ReadFile(policyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	query, err := rego.New(
		rego.Query(DenyQuery),
		rego.Module(policy.FilePath, string(policyContent)),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query: %w", err)
	}

	input := map[string]interface{}{
		"resource": doc,
	}

	results, err := query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	var messages []string
	if len(results) > 0 && len(results[0].Expressions) > 0 {
		if denySet, ok := results[0].Expressions[0].Value.([]interface{}); ok {
			for _, v := range denySet {
				if msg, ok := v.(string); ok {
					messages = append(messages, msg)
				}
			}
		}
	}

	return messages, nil
}
