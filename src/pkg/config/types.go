package config

// GateConfig is the optional gate configuration file
// (gate-config.yaml). When no config file is given the policy stage is
// skipped and the gate reconciles confirmations only.
type GateConfig struct {
	// Policies maps policy ids to deletion policies evaluated against
	// every PersistentVolume document removed by the push.
	Policies map[string]PolicyConfig `yaml:"policies"`
}

// PolicyConfig describes one rego deletion policy.
type PolicyConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// FilePath is the policy module path, relative to the policies
	// directory.
	FilePath string `yaml:"filePath"`
}
