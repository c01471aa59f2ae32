package models

// Commit is one commit of a push event.
type Commit struct {
	ID      string   `json:"id"`
	Message string   `json:"message"`
	Removed []string `json:"removed"`

	// TreeRef is the ref whose tree still contains this commit's removed
	// paths (the preceding commit of the push, or the push's before-sha
	// for the first commit). Derived by the event loader, not part of the
	// webhook payload.
	TreeRef string `json:"-"`
}

// Push is the ordered list of commits delivered by one push event.
type Push struct {
	Ref        string   `json:"ref"`
	Before     string   `json:"before"`
	After      string   `json:"after"`
	Commits    []Commit `json:"commits"`
	HeadCommit *Commit  `json:"head_commit"`
}

// TreeEntry is one row of a commit's flat tree snapshot. SHA is only
// valid for lookups at the commit the tree was resolved from.
type TreeEntry struct {
	Path string `json:"path"`
	SHA  string `json:"sha"`
}
