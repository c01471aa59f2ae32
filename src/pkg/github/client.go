package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/gh-nvat/gitops-pvgate/src/pkg/models"
	"github.com/google/go-github/v66/github"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

var logger = log.WithField("package", "github")

// RepoContentClient defines the repository content operations the gate
// needs: resolving a commit's flat file tree and fetching the raw text
// of a tree entry. Implementations other than the live API client are
// used for local runs and tests.
type RepoContentClient interface {
	// ResolveTree returns the full path -> content-id snapshot of the
	// tree the given ref points to.
	ResolveTree(ctx context.Context, repo, ref string) ([]models.TreeEntry, error)
	// FetchContent returns the decoded text of the blob with the given
	// content id.
	FetchContent(ctx context.Context, repo, contentID string) (string, error)
}

// Client handles GitHub API interactions using go-github
type Client struct {
	client *github.Client
}

// Ensure Client implements RepoContentClient
var _ RepoContentClient = (*Client)(nil)

// NewClient creates a new GitHub client
func NewClient() (*Client, error) {
	token := os.Getenv("GH_TOKEN")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("GitHub token not found. Set GH_TOKEN or GITHUB_TOKEN environment variable")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	client := github.NewClient(tc)

	return &Client{
		client: client,
	}, nil
}

// ResolveTree resolves the commit the ref points to and returns its
// recursive tree listing. An invalid ref, a commit without a tree, an
// empty tree, or a truncated listing is an error: the gate must see
// every path that existed at the ref.
func (c *Client) ResolveTree(ctx context.Context, repo, ref string) ([]models.TreeEntry, error) {
	owner, name, err := ParseOwnerRepo(repo)
	if err != nil {
		return nil, fmt.Errorf("failed to parse repository: %w", err)
	}

	logger.WithField("repo", repo).WithField("ref", ref).Debug("Resolving commit tree")

	commit, _, err := c.client.Git.GetCommit(ctx, owner, name, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", ref, err)
	}

	treeSHA := commit.GetTree().GetSHA()
	if treeSHA == "" {
		return nil, fmt.Errorf("commit %s has no tree", ref)
	}

	tree, _, err := c.client.Git.GetTree(ctx, owner, name, treeSHA, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get tree %s: %w", treeSHA, err)
	}
	if tree == nil || len(tree.Entries) == 0 {
		return nil, fmt.Errorf("tree %s is empty", treeSHA)
	}
	if tree.GetTruncated() {
		return nil, fmt.Errorf("tree %s is truncated, cannot guarantee a complete snapshot", treeSHA)
	}

	entries := make([]models.TreeEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		entries = append(entries, models.TreeEntry{
			Path: entry.GetPath(),
			SHA:  entry.GetSHA(),
		})
	}

	return entries, nil
}

// FetchContent retrieves a blob and decodes it to plain text. base64 is
// the only transfer encoding the gate supports.
func (c *Client) FetchContent(ctx context.Context, repo, contentID string) (string, error) {
	owner, name, err := ParseOwnerRepo(repo)
	if err != nil {
		return "", fmt.Errorf("failed to parse repository: %w", err)
	}

	blob, _, err := c.client.Git.GetBlob(ctx, owner, name, contentID)
	if err != nil {
		return "", fmt.Errorf("failed to get blob %s: %w", contentID, err)
	}
	if blob == nil || blob.GetContent() == "" {
		return "", fmt.Errorf("blob %s has no content", contentID)
	}

	return DecodeBlobContent(blob.GetContent(), blob.GetEncoding())
}

// DecodeBlobContent decodes blob content in the given transfer
// encoding. The blob API wraps base64 payloads at 60 columns, so
// embedded newlines are stripped before decoding.
func DecodeBlobContent(content, encoding string) (string, error) {
	if encoding != "base64" {
		return "", fmt.Errorf("unsupported blob encoding: %q", encoding)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("failed to decode blob content: %w", err)
	}
	return string(decoded), nil
}
