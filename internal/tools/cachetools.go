package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/user/gxtract/internal/metadata"
)

// CacheTools exposes management operations over the metadata cache:
// manual refresh, statistics, and listing the cached catalog. These
// back the diagnostic workflow — clients can inspect what the server
// knows and force a refresh without restarting it.
type CacheTools struct {
	cache  *metadata.Cache
	logger *slog.Logger
}

// NewCacheTools creates the cache management tool provider.
func NewCacheTools(cache *metadata.Cache, logger *slog.Logger) *CacheTools {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheTools{cache: cache, logger: logger}
}

// ToolDefinition implements Provider.
func (t *CacheTools) ToolDefinition() Definition {
	statsSchema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"statistics": {
				"type": "object",
				"properties": {
					"hits":                  {"type": "integer"},
					"misses":                {"type": "integer"},
					"hit_rate":              {"type": "number"},
					"refresh_count":         {"type": "integer"},
					"refresh_success_count": {"type": "integer"},
					"refresh_failure_count": {"type": "integer"},
					"refresh_success_rate":  {"type": "number"},
					"last_refresh_time":     {"type": "string"},
					"last_hit_time":         {"type": "string"},
					"last_miss_time":        {"type": "string"}
				}
			}
		}
	}`)

	return Definition{
		Name:        "cache",
		Description: "Tools for managing the GroundX metadata cache",
		Methods: []Method{
			{
				Name:        "refreshMetadataCache",
				Description: "Manually refreshes the GroundX metadata cache",
				Handler:     t.refreshMetadataCache,
				Returns: json.RawMessage(`{
					"type": "object",
					"properties": {"success": {"type": "boolean"}, "message": {"type": "string"}}
				}`),
			},
			{
				Name:        "getCacheStatistics",
				Description: "Retrieves statistics about the GroundX metadata cache",
				Handler:     t.getCacheStatistics,
				Returns:     statsSchema,
			},
			{
				Name:        "listCachedResources",
				Description: "Lists available GroundX projects and buckets from the server's cache",
				Handler:     t.listCachedResources,
				Returns: json.RawMessage(`{
					"type": "object",
					"properties": {
						"projects":      {"type": "array"},
						"lastRefreshed": {"type": "string"}
					}
				}`),
			},
			{
				Name:        "refreshCachedResources",
				Description: "Manually refreshes the GroundX projects and buckets cache",
				Handler:     t.refreshCachedResources,
				Returns: json.RawMessage(`{
					"type": "object",
					"properties": {
						"success":       {"type": "boolean"},
						"lastRefreshed": {"type": "string"},
						"projectCount":  {"type": "integer"}
					}
				}`),
			},
		},
	}
}

type refreshCacheResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (t *CacheTools) refreshMetadataCache(ctx context.Context, _ map[string]any) (any, error) {
	t.logger.Info("manual cache refresh requested")

	if t.cache.Refresh(ctx) {
		return refreshCacheResult{Success: true, Message: "Cache refresh completed successfully"}, nil
	}
	return refreshCacheResult{Success: false, Message: "Cache refresh failed - check server logs for details"}, nil
}

type cacheStatisticsResult struct {
	Statistics metadata.Statistics `json:"statistics"`
}

func (t *CacheTools) getCacheStatistics(_ context.Context, _ map[string]any) (any, error) {
	return cacheStatisticsResult{Statistics: t.cache.Statistics()}, nil
}

type listCachedResourcesResult struct {
	Projects      []metadata.Project `json:"projects"`
	LastRefreshed time.Time          `json:"lastRefreshed,omitzero"`
}

func (t *CacheTools) listCachedResources(_ context.Context, _ map[string]any) (any, error) {
	return listCachedResourcesResult{
		Projects:      t.cache.Projects(),
		LastRefreshed: t.cache.LastRefreshed(),
	}, nil
}

type refreshCachedResourcesResult struct {
	Success       bool      `json:"success"`
	LastRefreshed time.Time `json:"lastRefreshed,omitzero"`
	ProjectCount  int       `json:"projectCount"`
}

func (t *CacheTools) refreshCachedResources(ctx context.Context, _ map[string]any) (any, error) {
	t.logger.Info("manually refreshing cached resources")

	success := t.cache.Refresh(ctx)
	return refreshCachedResourcesResult{
		Success:       success,
		LastRefreshed: t.cache.LastRefreshed(),
		ProjectCount:  len(t.cache.Projects()),
	}, nil
}
