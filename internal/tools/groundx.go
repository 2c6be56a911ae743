package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/gxtract/internal/groundx"
	"github.com/user/gxtract/internal/metadata"
)

// GroundXConfig carries the tool-level settings the GroundX handlers
// honor.
type GroundXConfig struct {
	// DefaultBucketID is used when a call provides no bucketId.
	DefaultBucketID string
	// CacheDisabled routes all id validation through the direct API.
	CacheDisabled bool
}

// GroundXTools exposes document search over the GroundX platform:
// searching across a project/bucket/group, querying a single
// document, and explaining a semantic object within a document.
// Project and bucket ids are validated against the metadata cache
// with a direct-API fallback on miss; validation failures produce a
// warning in the response, never an error.
type GroundXTools struct {
	client *groundx.Client
	cache  *metadata.Cache
	direct *metadata.Direct
	cfg    GroundXConfig
	logger *slog.Logger
}

// NewGroundXTools creates the GroundX tool provider.
func NewGroundXTools(client *groundx.Client, cache *metadata.Cache, direct *metadata.Direct, cfg GroundXConfig, logger *slog.Logger) *GroundXTools {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroundXTools{client: client, cache: cache, direct: direct, cfg: cfg, logger: logger}
}

// ToolDefinition implements Provider.
func (t *GroundXTools) ToolDefinition() Definition {
	return Definition{
		Name:        "groundx",
		Description: "Search and query documents stored in the GroundX platform.",
		Methods: []Method{
			{
				Name: "searchDocuments",
				Description: "Searches for documents across a GroundX project, bucket, or group " +
					"based on a natural language query.",
				Handler: t.searchDocuments,
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"query":     {"type": "string", "description": "Natural language search query"},
						"projectId": {"type": "string", "description": "Project to search in"},
						"bucketId":  {"type": "string", "description": "Bucket to search in"},
						"groupId":   {"type": "string", "description": "Group to search in"},
						"filter":    {"type": "object", "description": "Optional metadata filter"},
						"limit":     {"type": "integer", "description": "Maximum number of results (default 5)"}
					},
					"required": ["query"]
				}`),
				Returns: json.RawMessage(`{
					"type": "object",
					"properties": {
						"results": {"type": "array"},
						"total":   {"type": "integer"},
						"warning": {"type": "string"}
					}
				}`),
			},
			{
				Name: "queryDocument",
				Description: "Queries a specific document with a natural language question and " +
					"returns the most relevant passages as an answer.",
				Handler: t.queryDocument,
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"documentId": {"type": "string", "description": "Document to query"},
						"query":      {"type": "string", "description": "Natural language question"},
						"projectId":  {"type": "string", "description": "Project containing the document"},
						"bucketId":   {"type": "string", "description": "Bucket containing the document"}
					},
					"required": ["documentId", "query"]
				}`),
				Returns: json.RawMessage(`{
					"type": "object",
					"properties": {
						"answer":       {"type": "string"},
						"documentInfo": {"type": "object"},
						"confidence":   {"type": "number"}
					}
				}`),
			},
			{
				Name: "explainSemanticObject",
				Description: "Explains a semantic object (figure, table, equation) extracted from " +
					"a document.",
				Handler: t.explainSemanticObject,
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"documentId":       {"type": "string", "description": "Document containing the object"},
						"semanticObjectId": {"type": "string", "description": "Semantic object to explain"},
						"projectId":        {"type": "string", "description": "Project containing the document"},
						"bucketId":         {"type": "string", "description": "Bucket containing the document"}
					},
					"required": ["documentId", "semanticObjectId"]
				}`),
				Returns: json.RawMessage(`{
					"type": "object",
					"properties": {
						"explanation": {"type": "string"},
						"objectType":  {"type": "string"},
						"objectInfo":  {"type": "object"}
					}
				}`),
			},
		},
	}
}

type searchResultEntry struct {
	DocumentID string  `json:"documentId"`
	Score      float64 `json:"score"`
	Summary    string  `json:"summary"`
	Title      string  `json:"title,omitempty"`
	SourceURL  string  `json:"sourceUrl,omitempty"`
}

type searchDocumentsResult struct {
	Results []searchResultEntry `json:"results"`
	Total   int                 `json:"total"`
	Warning string              `json:"warning,omitempty"`
}

func (t *GroundXTools) searchDocuments(ctx context.Context, args map[string]any) (any, error) {
	query := stringArg(args, "query")
	if query == "" {
		return nil, fmt.Errorf("missing required parameter: query")
	}

	projectID := stringArg(args, "projectId")
	bucketID := stringArg(args, "bucketId")
	if bucketID == "" {
		bucketID = t.cfg.DefaultBucketID
	}
	groupID := stringArg(args, "groupId")
	limit := intArg(args, "limit", 5)
	filter := mapArg(args, "filter")

	if projectID == "" && bucketID == "" && groupID == "" {
		return nil, fmt.Errorf("at least one of projectId, bucketId, or groupId must be provided")
	}

	warning := t.validateScope(ctx, projectID, bucketID)

	// Scope priority follows the platform convention: project, then
	// bucket, then group.
	scopeID := projectID
	if scopeID == "" {
		scopeID = bucketID
	}
	if scopeID == "" {
		scopeID = groupID
	}

	resp, err := t.client.SearchContent(ctx, scopeID, query, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	out := searchDocumentsResult{
		Results: make([]searchResultEntry, 0, len(resp.Results)),
		Total:   resp.Total,
		Warning: warning,
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, searchResultEntry{
			DocumentID: r.DocumentID,
			Score:      r.Score,
			Summary:    r.Text,
			Title:      r.Title,
			SourceURL:  r.SourceURL,
		})
	}
	return out, nil
}

type documentInfo struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title,omitempty"`
	SourceURL  string `json:"sourceUrl,omitempty"`
}

type queryDocumentResult struct {
	Answer       string       `json:"answer"`
	DocumentInfo documentInfo `json:"documentInfo"`
	Confidence   float64      `json:"confidence"`
	Warning      string       `json:"warning,omitempty"`
}

func (t *GroundXTools) queryDocument(ctx context.Context, args map[string]any) (any, error) {
	documentID := stringArg(args, "documentId")
	query := stringArg(args, "query")
	if documentID == "" || query == "" {
		return nil, fmt.Errorf("missing required parameters: documentId and query")
	}

	projectID := stringArg(args, "projectId")
	bucketID := stringArg(args, "bucketId")
	if bucketID == "" {
		bucketID = t.cfg.DefaultBucketID
	}

	// Queries run within the document's bucket when known, falling
	// back to its project.
	scopeID := bucketID
	if scopeID == "" {
		scopeID = projectID
	}
	if scopeID == "" {
		return nil, fmt.Errorf("a bucketId or projectId is required to query a document")
	}

	warning := t.validateScope(ctx, projectID, bucketID)

	// There is no per-document query endpoint; scope the search to
	// the document by carrying its id in the query.
	scoped := fmt.Sprintf("%s document_id:%s", query, documentID)
	resp, err := t.client.SearchContent(ctx, scopeID, scoped, 5, nil)
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}

	if len(resp.Results) == 0 {
		return queryDocumentResult{
			Answer:       fmt.Sprintf("No information found in this document about %q.", query),
			DocumentInfo: documentInfo{DocumentID: documentID},
			Confidence:   0,
			Warning:      warning,
		}, nil
	}

	var chunks []string
	var maxScore float64
	info := documentInfo{DocumentID: documentID}
	for _, r := range resp.Results {
		if strings.TrimSpace(r.Text) != "" {
			chunks = append(chunks, strings.TrimSpace(r.Text))
		}
		if r.Score > maxScore {
			maxScore = r.Score
		}
		if info.Title == "" {
			info.Title = r.Title
		}
		if info.SourceURL == "" {
			info.SourceURL = r.SourceURL
		}
	}

	answer := strings.Join(chunks, "\n\n")
	if answer == "" {
		answer = fmt.Sprintf(
			"Found the document, but couldn't extract specific information about %q. "+
				"Try a more specific question.", query)
	}
	return queryDocumentResult{
		Answer:       answer,
		DocumentInfo: info,
		Confidence:   maxScore,
		Warning:      warning,
	}, nil
}

type explainObjectResult struct {
	Explanation string         `json:"explanation"`
	ObjectType  string         `json:"objectType"`
	ObjectInfo  map[string]any `json:"objectInfo"`
	Warning     string         `json:"warning,omitempty"`
}

func (t *GroundXTools) explainSemanticObject(ctx context.Context, args map[string]any) (any, error) {
	documentID := stringArg(args, "documentId")
	objectID := stringArg(args, "semanticObjectId")
	if documentID == "" || objectID == "" {
		return nil, fmt.Errorf("missing required parameters: documentId and semanticObjectId")
	}

	projectID := stringArg(args, "projectId")
	bucketID := stringArg(args, "bucketId")
	if bucketID == "" {
		bucketID = t.cfg.DefaultBucketID
	}
	scopeID := bucketID
	if scopeID == "" {
		scopeID = projectID
	}
	if scopeID == "" {
		return nil, fmt.Errorf("a bucketId or projectId is required to explain a semantic object")
	}

	warning := t.validateScope(ctx, projectID, bucketID)

	scoped := fmt.Sprintf("semantic_object:%s document_id:%s", objectID, documentID)
	resp, err := t.client.SearchContent(ctx, scopeID, scoped, 3, nil)
	if err != nil {
		return nil, fmt.Errorf("explain semantic object: %w", err)
	}

	info := map[string]any{"documentId": documentID, "semanticObjectId": objectID}
	if len(resp.Results) == 0 {
		return explainObjectResult{
			Explanation: fmt.Sprintf("No explanation available for semantic object %q.", objectID),
			ObjectType:  "unknown",
			ObjectInfo:  info,
			Warning:     warning,
		}, nil
	}

	var chunks []string
	for _, r := range resp.Results {
		if strings.TrimSpace(r.Text) != "" {
			chunks = append(chunks, strings.TrimSpace(r.Text))
		}
	}
	explanation := strings.Join(chunks, "\n\n")
	if explanation == "" {
		explanation = fmt.Sprintf("Semantic object %q was found but carries no extractable content.", objectID)
	}
	return explainObjectResult{
		Explanation: explanation,
		ObjectType:  "extracted",
		ObjectInfo:  info,
		Warning:     warning,
	}, nil
}

// validateScope checks the provided ids against the cache, falling
// back to the direct API on a miss (or when the cache is disabled).
// It returns a human-readable warning when an id cannot be resolved
// anywhere; invalid ids never fail the call.
func (t *GroundXTools) validateScope(ctx context.Context, projectID, bucketID string) string {
	if projectID == "" && bucketID == "" {
		return ""
	}

	if projectID != "" {
		if !t.projectKnown(ctx, projectID) {
			w := fmt.Sprintf("Warning: project ID %q not found in cache or via direct API; it may be invalid.", projectID)
			t.logger.Warn("project validation failed", "project_id", projectID)
			return w
		}
		if bucketID != "" && !t.bucketKnown(ctx, projectID, bucketID) {
			w := fmt.Sprintf("Warning: bucket ID %q not found in project %q in cache or via direct API; it may be invalid.", bucketID, projectID)
			t.logger.Warn("bucket validation failed", "project_id", projectID, "bucket_id", bucketID)
			return w
		}
		return ""
	}

	// Only a bucket id was given: look for it across every cached
	// project. The direct API cannot resolve a bucket without its
	// owning project, so this path stays cache-only.
	if !t.cfg.CacheDisabled {
		for _, p := range t.cache.Projects() {
			for _, b := range p.Buckets {
				if b.ID == bucketID {
					return ""
				}
			}
		}
	}
	t.logger.Warn("bucket not found in any cached project", "bucket_id", bucketID)
	return fmt.Sprintf("Warning: bucket ID %q not found in any cached project; provide a projectId for accurate validation.", bucketID)
}

func (t *GroundXTools) projectKnown(ctx context.Context, projectID string) bool {
	if !t.cfg.CacheDisabled {
		if _, ok := t.cache.ProjectByID(projectID); ok {
			return true
		}
		t.logger.Info("project not in cache, trying direct API", "project_id", projectID)
	}
	_, ok := t.direct.ProjectByID(ctx, projectID)
	return ok
}

func (t *GroundXTools) bucketKnown(ctx context.Context, projectID, bucketID string) bool {
	if !t.cfg.CacheDisabled {
		if _, ok := t.cache.BucketByID(projectID, bucketID); ok {
			return true
		}
		t.logger.Info("bucket not in cache, trying direct API", "bucket_id", bucketID)
	}
	_, ok := t.direct.BucketByID(ctx, projectID, bucketID)
	return ok
}
