// Package metadata maintains an in-memory mirror of the GroundX
// catalog: projects and the buckets they own. The mirror is rebuilt
// wholesale by Refresh and served to tool handlers for validation and
// enrichment, with hit/miss/refresh statistics kept for diagnostics.
// Direct provides uncached point lookups for callers that miss the
// cache or run with it disabled.
package metadata

import (
	"context"
	"time"

	"github.com/user/gxtract/internal/groundx"
)

// Bucket is an immutable snapshot of a remote bucket. Entries are
// never mutated in place; a refresh replaces the whole catalog.
type Bucket struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Project is an immutable snapshot of a remote project and its
// buckets. Bucket ids are unique within a project but not globally.
type Project struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Buckets []Bucket `json:"buckets"`
}

// Catalog is one consistent snapshot of every known project. It is
// published atomically as a unit, so readers never observe a mix of
// old and new projects.
type Catalog struct {
	Projects      []Project `json:"projects"`
	LastRefreshed time.Time `json:"lastRefreshed,omitzero"`
}

// Source is the remote catalog API consumed by Cache and Direct.
// *groundx.Client satisfies it.
type Source interface {
	ListProjects(ctx context.Context) ([]groundx.Project, error)
	ListBuckets(ctx context.Context, projectID string) ([]groundx.Bucket, error)
	GetProject(ctx context.Context, id string) (*groundx.Project, error)
	GetBucket(ctx context.Context, id string) (*groundx.Bucket, error)
}
