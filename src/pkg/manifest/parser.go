package manifest

import (
	"fmt"
	"strings"

	"github.com/gh-nvat/gitops-pvgate/src/pkg/models"
	"sigs.k8s.io/kustomize/kyaml/kio"
	kyaml "sigs.k8s.io/kustomize/kyaml/yaml"
)

// KindPersistentVolume is the only resource kind the gate reconciles.
const KindPersistentVolume = "PersistentVolume"

// Document is one YAML document decoded from a manifest file. Fields
// beyond kind and metadata are preserved but not interpreted here.
type Document struct {
	node *kyaml.RNode
}

// Parse decodes the raw text of one manifest file into its ordered
// document sequence. A file may concatenate multiple YAML documents.
// Malformed YAML anywhere fails the whole file.
func Parse(content string) ([]Document, error) {
	nodes, err := kio.FromBytes([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	documents := make([]Document, 0, len(nodes))
	for _, node := range nodes {
		documents = append(documents, Document{node: node})
	}
	return documents, nil
}

// Kind returns the document's kind, or "" if absent.
func (d Document) Kind() string {
	return d.node.GetKind()
}

// HasMetadata reports whether the document carries a metadata block.
func (d Document) HasMetadata() bool {
	return d.node.Field("metadata") != nil
}

// Identity derives the resource identity from the document's metadata.
// A missing metadata block is a hard error: the manifest is malformed,
// not anonymous.
func (d Document) Identity() (models.ResourceIdentity, error) {
	if !d.HasMetadata() {
		return models.ResourceIdentity{}, fmt.Errorf("%s document has no metadata block", d.Kind())
	}
	return models.ResourceIdentity{
		Namespace: d.node.GetNamespace(),
		Name:      d.node.GetName(),
	}, nil
}

// Content returns the document as a generic keyed structure, as handed
// to deletion policies.
func (d Document) Content() (map[string]interface{}, error) {
	return d.node.Map()
}

// IsManifestPath reports whether the path carries a manifest file
// extension. Only these paths participate in reconciliation.
func IsManifestPath(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}
