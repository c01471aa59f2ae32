package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadGateConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gate-config.yaml")
	content := `policies:
  no-prod-deletes:
    name: No production deletions
    filePath: no_prod_deletes.rego
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader()
	cfg, err := loader.LoadGateConfig(path)
	if err != nil {
		t.Fatalf("LoadGateConfig() error = %v", err)
	}

	policy, ok := cfg.Policies["no-prod-deletes"]
	if !ok {
		t.Fatalf("policy not loaded: %v", cfg.Policies)
	}
	if policy.Name != "No production deletions" || policy.FilePath != "no_prod_deletes.rego" {
		t.Errorf("unexpected policy: %+v", policy)
	}

	if err := loader.ValidateGateConfig(cfg); err != nil {
		t.Errorf("ValidateGateConfig() error = %v", err)
	}
}

func TestValidateGateConfigRejectsIncomplete(t *testing.T) {
	loader := NewLoader()

	cfg := &GateConfig{Policies: map[string]PolicyConfig{
		"nameless": {FilePath: "p.rego"},
	}}
	if err := loader.ValidateGateConfig(cfg); err == nil {
		t.Error("expected error for missing name")
	}

	cfg = &GateConfig{Policies: map[string]PolicyConfig{
		"pathless": {Name: "p"},
	}}
	if err := loader.ValidateGateConfig(cfg); err == nil {
		t.Error("expected error for missing filePath")
	}
}

func TestLoadGateConfigMissingFile(t *testing.T) {
	loader := NewLoader()
	if _, err := loader.LoadGateConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
