package ageline

import "context"

// Query describes one subject search. BirthYear and TargetYear let providers
// bias their queries across the subject's lifetime; providers that cannot use
// them just read Name.
type Query struct {
	Name       string
	BirthYear  int
	TargetYear int
}

// Lead is one raw image lead returned by a provider before it becomes an
// ImageCandidate.
type Lead struct {
	Title    string
	ImageURL string
	PageURL  string
	Meta     map[string]string
}

// SourceProvider wraps one image data source. Implementations return an empty
// slice for ordinary "no results"; errors are reserved for provider-level
// failures, which the orchestrator logs and skips without aborting the run.
type SourceProvider interface {
	Name() string
	Search(ctx context.Context, q Query, limit int) ([]Lead, error)
}
