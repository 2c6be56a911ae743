// Package groundx is a minimal REST client for the GroundX document
// platform. It covers the handful of endpoints the server consumes:
// listing projects (groups) and buckets, point lookups, and content
// search. Remote payloads are decoded through an explicit wire schema
// that normalizes the field-name variants GroundX has shipped over
// time, so the rest of the codebase only ever sees canonical shapes.
package groundx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the production GroundX API endpoint.
const DefaultBaseURL = "https://api.groundx.ai/api/v1"

const defaultTimeout = 10 * time.Second

var (
	// ErrMissingAPIKey is returned before any network I/O when the
	// client was constructed without a credential.
	ErrMissingAPIKey = errors.New("groundx: api key not configured")

	// ErrNotFound is returned when the remote reports that the
	// requested entity does not exist.
	ErrNotFound = errors.New("groundx: not found")
)

// Project is the canonical shape of a GroundX group.
type Project struct {
	ID      string
	Name    string
	Buckets []Bucket
}

// Bucket is the canonical shape of a GroundX bucket. ProjectID is the
// owning group and may be empty in list responses that omit it.
type Bucket struct {
	ID        string
	Name      string
	ProjectID string
}

// SearchResult is one scored chunk from a content search.
type SearchResult struct {
	DocumentID string
	Score      float64
	Text       string
	Title      string
	SourceURL  string
}

// SearchResponse holds the results of a content search.
type SearchResponse struct {
	Results []SearchResult
	Total   int
}

// Config holds client construction parameters.
type Config struct {
	APIKey     string
	BaseURL    string       // defaults to DefaultBaseURL
	HTTPClient *http.Client // defaults to a client with a 10s timeout
	Logger     *slog.Logger // defaults to slog.Default()
}

// Client talks to the GroundX REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client from cfg, filling in defaults for any
// zero fields. An empty APIKey is allowed; every call will then fail
// fast with ErrMissingAPIKey without touching the network.
func NewClient(cfg Config) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// HasCredentials reports whether the client was configured with an
// API key.
func (c *Client) HasCredentials() bool { return c.apiKey != "" }

// ListProjects fetches all projects. Buckets embedded in the list
// response are included; projects whose buckets are omitted by the
// remote come back with an empty bucket list.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var resp listGroupsResponse
	if err := c.get(ctx, "/group", nil, &resp); err != nil {
		return nil, fmt.Errorf("groundx: list projects: %w", err)
	}

	groups := resp.Groups
	if len(groups) == 0 {
		groups = resp.Projects
	}
	projects := make([]Project, 0, len(groups))
	for _, g := range groups {
		projects = append(projects, g.canonical())
	}
	return projects, nil
}

// ListBuckets fetches the buckets owned by a single project.
func (c *Client) ListBuckets(ctx context.Context, projectID string) ([]Bucket, error) {
	q := url.Values{"groupId": {projectID}}
	var resp listBucketsResponse
	if err := c.get(ctx, "/bucket", q, &resp); err != nil {
		return nil, fmt.Errorf("groundx: list buckets for %s: %w", projectID, err)
	}

	buckets := make([]Bucket, 0, len(resp.Buckets))
	for _, b := range resp.Buckets {
		buckets = append(buckets, b.canonical())
	}
	return buckets, nil
}

// GetProject fetches a single project by id. The returned project
// never includes buckets; callers that need them use ListBuckets.
// Returns ErrNotFound if the remote has no such project.
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var resp getGroupResponse
	if err := c.get(ctx, "/group/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("groundx: get project %s: %w", id, err)
	}
	if resp.Group == nil {
		return nil, fmt.Errorf("groundx: get project %s: %w", id, ErrNotFound)
	}

	p := resp.Group.canonical()
	return &p, nil
}

// GetBucket fetches a single bucket by id. The result carries the
// owning project id so callers can verify ownership. Returns
// ErrNotFound if the remote has no such bucket.
func (c *Client) GetBucket(ctx context.Context, id string) (*Bucket, error) {
	var resp getBucketResponse
	if err := c.get(ctx, "/bucket/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("groundx: get bucket %s: %w", id, err)
	}
	if resp.Bucket == nil {
		return nil, fmt.Errorf("groundx: get bucket %s: %w", id, ErrNotFound)
	}

	b := resp.Bucket.canonical()
	return &b, nil
}

// SearchContent runs a content search scoped to the project, bucket,
// or group identified by scopeID and returns up to limit results.
func (c *Client) SearchContent(ctx context.Context, scopeID, query string, limit int, filter map[string]any) (*SearchResponse, error) {
	body := searchRequest{Query: query, N: limit, Filter: filter}
	var resp searchEnvelope
	if err := c.post(ctx, "/search/"+url.PathEscape(scopeID), body, &resp); err != nil {
		return nil, fmt.Errorf("groundx: search %s: %w", scopeID, err)
	}

	results := make([]SearchResult, 0, len(resp.Search.Results))
	for _, r := range resp.Search.Results {
		results = append(results, r.canonical())
	}
	return &SearchResponse{Results: results, Total: len(results)}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
