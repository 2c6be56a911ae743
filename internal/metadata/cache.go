package metadata

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/gxtract/internal/groundx"
)

// Cache is the in-memory metadata cache. The catalog snapshot is
// published through an atomic pointer after it is fully built, so a
// refresh never blocks readers and readers never see a half-built
// catalog. Counters live under their own mutex; a lookup racing a
// refresh may be counted against the old catalog, which is fine —
// statistics are best-effort diagnostics, not a consistency witness.
type Cache struct {
	source Source
	logger *slog.Logger

	catalog atomic.Pointer[Catalog]

	mu             sync.Mutex
	hits           int64
	misses         int64
	refreshCount   int64
	refreshSuccess int64
	refreshFailure int64
	lastHit        time.Time
	lastMiss       time.Time
	lastRefresh    time.Time
}

// NewCache creates a Cache over the given source. The catalog starts
// empty; call Refresh to populate it.
func NewCache(source Source, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{source: source, logger: logger}
	c.catalog.Store(&Catalog{Projects: []Project{}})
	return c
}

// Refresh rebuilds the catalog from the remote source and publishes
// it atomically. A failure of the top-level project list (including a
// missing credential, which never reaches the network) aborts the
// refresh: the catalog is reset to empty and false is returned. A
// failed bucket fetch for a single project is tolerated — that
// project is kept with an empty bucket list.
//
// Every attempt, success or failure, stamps the catalog's
// LastRefreshed and increments the refresh counters exactly once.
// Errors are logged, never propagated.
func (c *Cache) Refresh(ctx context.Context) bool {
	remote, err := c.source.ListProjects(ctx)
	if err != nil {
		if errors.Is(err, groundx.ErrMissingAPIKey) {
			c.logger.Error("cannot refresh metadata cache: api key not configured")
		} else {
			c.logger.Error("metadata cache refresh failed", "error", err)
		}
		c.publish(nil)
		c.recordRefresh(false)
		return false
	}
	if len(remote) == 0 {
		c.logger.Warn("metadata cache refresh returned no projects")
		c.publish(nil)
		c.recordRefresh(false)
		return false
	}

	projects := make([]Project, 0, len(remote))
	for _, rp := range remote {
		buckets := make([]Bucket, 0, len(rp.Buckets))
		for _, rb := range rp.Buckets {
			buckets = append(buckets, Bucket{ID: rb.ID, Name: rb.Name})
		}

		// List responses do not always embed buckets; fetch them
		// per project when they are absent.
		if len(buckets) == 0 {
			fetched, err := c.source.ListBuckets(ctx, rp.ID)
			if err != nil {
				c.logger.Warn("bucket fetch failed, keeping project with empty bucket list",
					"project_id", rp.ID, "project_name", rp.Name, "error", err)
			}
			for _, rb := range fetched {
				buckets = append(buckets, Bucket{ID: rb.ID, Name: rb.Name})
			}
		}

		projects = append(projects, Project{ID: rp.ID, Name: rp.Name, Buckets: buckets})
	}

	c.publish(projects)
	c.recordRefresh(true)
	c.logger.Info("metadata cache refreshed", "projects", len(projects))
	return true
}

// StartAutoRefresh launches a background goroutine that calls Refresh
// every interval until ctx is cancelled. A non-positive interval
// disables periodic refresh.
func (c *Cache) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Refresh(ctx)
			}
		}
	}()
}

// Projects returns the current catalog's projects verbatim. A bulk
// read is not a lookup and does not touch the hit/miss counters.
func (c *Cache) Projects() []Project {
	return c.catalog.Load().Projects
}

// LastRefreshed returns when the last refresh attempt concluded, or
// the zero time if no refresh has run.
func (c *Cache) LastRefreshed() time.Time {
	return c.catalog.Load().LastRefreshed
}

// ProjectByID scans the current catalog for a project. It records
// exactly one hit or one miss per call.
func (c *Cache) ProjectByID(id string) (Project, bool) {
	for _, p := range c.catalog.Load().Projects {
		if p.ID == id {
			c.recordHit()
			return p, true
		}
	}
	c.recordMiss()
	return Project{}, false
}

// BucketByID resolves the project via ProjectByID, then scans its
// buckets. Because the project lookup records its own hit or miss, a
// missing project yields two miss events in total: one for the
// project and one for the bucket.
func (c *Cache) BucketByID(projectID, bucketID string) (Bucket, bool) {
	project, ok := c.ProjectByID(projectID)
	if ok {
		for _, b := range project.Buckets {
			if b.ID == bucketID {
				c.recordHit()
				return b, true
			}
		}
	}
	c.recordMiss()
	return Bucket{}, false
}

// Statistics returns a copy of the counters with derived rates.
func (c *Cache) Statistics() Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Statistics{
		Hits:                c.hits,
		Misses:              c.misses,
		HitRate:             percentage(c.hits, c.hits+c.misses),
		RefreshCount:        c.refreshCount,
		RefreshSuccessCount: c.refreshSuccess,
		RefreshFailureCount: c.refreshFailure,
		RefreshSuccessRate:  percentage(c.refreshSuccess, c.refreshCount),
		LastRefreshTime:     c.lastRefresh,
		LastHitTime:         c.lastHit,
		LastMissTime:        c.lastMiss,
	}
}

// publish swaps in a new catalog snapshot, stamping LastRefreshed. A
// nil project list publishes an empty catalog ("we now know
// nothing").
func (c *Cache) publish(projects []Project) {
	if projects == nil {
		projects = []Project{}
	}
	c.catalog.Store(&Catalog{
		Projects:      projects,
		LastRefreshed: time.Now().UTC(),
	})
}

func (c *Cache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.lastHit = time.Now().UTC()
	c.mu.Unlock()
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.lastMiss = time.Now().UTC()
	c.mu.Unlock()
}

func (c *Cache) recordRefresh(success bool) {
	c.mu.Lock()
	c.refreshCount++
	if success {
		c.refreshSuccess++
	} else {
		c.refreshFailure++
	}
	c.lastRefresh = time.Now().UTC()
	c.mu.Unlock()
}
