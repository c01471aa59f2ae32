package confirm

import (
	"strings"

	"github.com/gh-nvat/gitops-pvgate/src/pkg/models"
)

// ConfirmationPrefix marks a commit message line carrying deletion
// confirmations. The match is case-sensitive and anchored at the start
// of the line.
const ConfirmationPrefix = "DELETE_PERSISTENT_VOLUME:"

// Parse extracts deletion confirmations from one commit message.
//
// Each qualifying line contributes one confirmation per comma-separated
// `namespace/name` token. Tokens are trimmed but not validated: a token
// without a separator yields a confirmation that can never match any
// resource, which reconciliation surfaces as an unconfirmed deletion.
func Parse(message string) []models.Confirmation {
	var confirmations []models.Confirmation

	for _, line := range strings.Split(message, "\n") {
		if !strings.HasPrefix(line, ConfirmationPrefix) {
			continue
		}

		rest := strings.TrimPrefix(line, ConfirmationPrefix)
		for _, token := range strings.Split(rest, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}

			// Only the first two segments are kept; anything after a
			// second separator is discarded.
			parts := strings.Split(token, "/")
			confirmation := models.Confirmation{Namespace: parts[0]}
			if len(parts) >= 2 {
				confirmation.Name = parts[1]
			}
			confirmations = append(confirmations, confirmation)
		}
	}

	return confirmations
}

// ParseAll pools confirmations from every commit message of a push.
// Duplicates are kept; they collapse naturally under value matching.
func ParseAll(messages []string) []models.Confirmation {
	var pooled []models.Confirmation
	for _, message := range messages {
		pooled = append(pooled, Parse(message)...)
	}
	return pooled
}
