package runner

type Options struct {
	// Run mode
	RunMode string // "github" or "local"

	// Common options
	GateConfigPath     string
	PoliciesPath       string
	OutputDir          string
	EnableExportReport bool

	// GitHub mode options
	GhRepo    string
	EventPath string // Path to the push event payload (GITHUB_EVENT_PATH)

	// Local mode options
	LcFixtureDir string // Directory holding event.json, trees/, blobs/
}
