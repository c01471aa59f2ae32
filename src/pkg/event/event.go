package event

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gh-nvat/gitops-pvgate/src/pkg/models"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("package", "event")

// EventNamePush is the only event type the gate accepts.
const EventNamePush = "push"

// CheckEventName rejects any triggering event other than a push. An
// empty name is allowed so local runs need not fake the workflow
// environment.
func CheckEventName(name string) error {
	if name != "" && name != EventNamePush {
		return fmt.Errorf("unsupported event type %q, only %q events are supported", name, EventNamePush)
	}
	return nil
}

// Load reads and validates a push event payload from a file.
func Load(path string) (*models.Push, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}
	return Parse(data)
}

// Parse decodes a push event payload, validates its shape, and derives
// each commit's pre-change tree ref.
//
// A push without commits or without a head commit is malformed: the
// gate refuses to treat it as a no-op.
func Parse(data []byte) (*models.Push, error) {
	var push models.Push
	if err := json.Unmarshal(data, &push); err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}

	if len(push.Commits) == 0 {
		return nil, fmt.Errorf("event has no commits")
	}
	if push.HeadCommit == nil {
		return nil, fmt.Errorf("event has no head commit")
	}

	// The tree that still contains a commit's removed paths is the one
	// before the commit was applied: the preceding commit of the push,
	// or the push's before-sha for the first commit.
	for i := range push.Commits {
		if i == 0 {
			push.Commits[i].TreeRef = push.Before
		} else {
			push.Commits[i].TreeRef = push.Commits[i-1].ID
		}
	}

	logger.WithField("ref", push.Ref).WithField("commits", len(push.Commits)).Debug("Parsed push event")
	return &push, nil
}
