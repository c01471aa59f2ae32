package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigLoader defines the interface for loading configuration files
type ConfigLoader interface {
	// LoadGateConfig loads the gate configuration from a YAML file
	LoadGateConfig(path string) (*GateConfig, error)
	// ValidateGateConfig validates the gate configuration
	ValidateGateConfig(config *GateConfig) error
}

// Loader handles loading configuration files
type Loader struct{}

// Ensure Loader implements ConfigLoader
var _ ConfigLoader = (*Loader)(nil)

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadGateConfig loads the gate configuration from a YAML file
func (l *Loader) LoadGateConfig(path string) (*GateConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gate config: %w", err)
	}

	var config GateConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse gate config: %w", err)
	}

	return &config, nil
}

// ValidateGateConfig validates the gate configuration
func (l *Loader) ValidateGateConfig(config *GateConfig) error {
	for id, policy := range config.Policies {
		if policy.Name == "" {
			return fmt.Errorf("policy %s: name is required", id)
		}
		if policy.FilePath == "" {
			return fmt.Errorf("policy %s: filePath is required", id)
		}
	}
	return nil
}
