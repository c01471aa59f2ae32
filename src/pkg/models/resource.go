package models

import "fmt"

// Confirmation is one namespace/name pair parsed from a commit message,
// explicitly approving deletion of that PersistentVolume in this push.
type Confirmation struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// ResourceIdentity identifies a PersistentVolume extracted from a
// manifest document.
type ResourceIdentity struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// Matches reports whether the confirmation approves deletion of the
// given resource. Comparison is by value of both fields, case-sensitive.
func (c Confirmation) Matches(id ResourceIdentity) bool {
	return c.Namespace == id.Namespace && c.Name == id.Name
}

func (id ResourceIdentity) String() string {
	return fmt.Sprintf("%s/%s", id.Namespace, id.Name)
}
