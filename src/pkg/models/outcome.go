package models

// Finding records one reconciled PersistentVolume deletion.
type Finding struct {
	Identity  ResourceIdentity `json:"identity"`
	Path      string           `json:"path"`
	CommitID  string           `json:"commitId"`
	Confirmed bool             `json:"confirmed"`
}

// Outcome is the result of reconciling one push.
type Outcome struct {
	Confirmations  []Confirmation `json:"confirmations"`
	Confirmed      []Finding      `json:"confirmed"`
	Unconfirmed    []Finding      `json:"unconfirmed"`
	HasUnconfirmed bool           `json:"hasUnconfirmed"`
	PolicyDenials  []PolicyDenial `json:"policyDenials,omitempty"`
}

// PolicyDenial is a blocking violation raised by a deletion policy
// against a to-be-deleted PersistentVolume document.
type PolicyDenial struct {
	PolicyID string           `json:"policyId"`
	Identity ResourceIdentity `json:"identity"`
	Message  string           `json:"message"`
}
