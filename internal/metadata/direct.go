package metadata

import (
	"context"
	"log/slog"
)

// Direct performs uncached point lookups against the remote source.
// It is the fallback path when the cache misses or is disabled. All
// methods are read-only toward the cache: results are never written
// back into it — that is the caller's decision.
type Direct struct {
	source Source
	logger *slog.Logger
}

// NewDirect creates a Direct over the given source.
func NewDirect(source Source, logger *slog.Logger) *Direct {
	if logger == nil {
		logger = slog.Default()
	}
	return &Direct{source: source, logger: logger}
}

// ProjectByID fetches a single project from the remote. The result
// always carries an empty bucket list: buckets are not fetched
// eagerly on the fallback path. Errors and absence both come back as
// not-found; they are logged, never raised.
func (d *Direct) ProjectByID(ctx context.Context, id string) (Project, bool) {
	remote, err := d.source.GetProject(ctx, id)
	if err != nil {
		d.logger.Error("direct project lookup failed", "project_id", id, "error", err)
		return Project{}, false
	}
	return Project{ID: remote.ID, Name: remote.Name, Buckets: []Bucket{}}, true
}

// BucketByID fetches a single bucket from the remote and verifies it
// belongs to projectID. A bucket whose id matches but whose owning
// project differs is treated as not found.
func (d *Direct) BucketByID(ctx context.Context, projectID, bucketID string) (Bucket, bool) {
	remote, err := d.source.GetBucket(ctx, bucketID)
	if err != nil {
		d.logger.Error("direct bucket lookup failed", "bucket_id", bucketID, "error", err)
		return Bucket{}, false
	}
	if remote.ProjectID != projectID {
		d.logger.Warn("bucket exists but belongs to a different project",
			"bucket_id", bucketID, "want_project", projectID, "got_project", remote.ProjectID)
		return Bucket{}, false
	}
	return Bucket{ID: remote.ID, Name: remote.Name}, true
}

// AllProjects lists every remote project, each with an empty bucket
// list. On error it returns an empty slice.
func (d *Direct) AllProjects(ctx context.Context) []Project {
	remote, err := d.source.ListProjects(ctx)
	if err != nil {
		d.logger.Error("direct project list failed", "error", err)
		return []Project{}
	}
	projects := make([]Project, 0, len(remote))
	for _, rp := range remote {
		projects = append(projects, Project{ID: rp.ID, Name: rp.Name, Buckets: []Bucket{}})
	}
	return projects
}
