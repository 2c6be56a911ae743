package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/user/gxtract/internal/groundx"
	"github.com/user/gxtract/internal/metadata"
)

type fakeSource struct {
	projects []groundx.Project
	listErr  error
}

func (f *fakeSource) ListProjects(ctx context.Context) ([]groundx.Project, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.projects, nil
}

func (f *fakeSource) ListBuckets(ctx context.Context, projectID string) ([]groundx.Bucket, error) {
	return nil, nil
}

func (f *fakeSource) GetProject(ctx context.Context, id string) (*groundx.Project, error) {
	return nil, groundx.ErrNotFound
}

func (f *fakeSource) GetBucket(ctx context.Context, id string) (*groundx.Bucket, error) {
	return nil, groundx.ErrNotFound
}

func newTestCache(src *fakeSource) *metadata.Cache {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return metadata.NewCache(src, logger)
}

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	healthHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("status = %q, want %q", resp.Status, "ok")
	}
}

func TestStatsHandler(t *testing.T) {
	src := &fakeSource{projects: []groundx.Project{{ID: "p1", Name: "Papers"}}}
	cache := newTestCache(src)
	cache.Refresh(context.Background())
	cache.ProjectByID("p1")
	cache.ProjectByID("missing")

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	statsHandler(cache)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var stats map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats["hits"] != float64(1) || stats["misses"] != float64(1) {
		t.Fatalf("stats = %v, want 1 hit and 1 miss", stats)
	}
	if stats["hit_rate"] != float64(50) {
		t.Fatalf("hit_rate = %v, want 50", stats["hit_rate"])
	}
}

func TestStatsHandlerMethodNotAllowed(t *testing.T) {
	cache := newTestCache(&fakeSource{})
	req := httptest.NewRequest(http.MethodPost, "/stats", nil)
	rec := httptest.NewRecorder()
	statsHandler(cache)(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestCatalogHandler(t *testing.T) {
	src := &fakeSource{projects: []groundx.Project{
		{ID: "p1", Name: "Papers", Buckets: []groundx.Bucket{{ID: "b1", Name: "Physics"}}},
	}}
	cache := newTestCache(src)
	cache.Refresh(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	rec := httptest.NewRecorder()
	catalogHandler(cache)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp catalogResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal catalog: %v", err)
	}
	if len(resp.Projects) != 1 || resp.Projects[0].ID != "p1" {
		t.Fatalf("projects = %+v, want p1", resp.Projects)
	}
	if len(resp.Projects[0].Buckets) != 1 {
		t.Fatalf("buckets = %+v, want one", resp.Projects[0].Buckets)
	}
	if resp.LastRefreshed.IsZero() {
		t.Fatal("lastRefreshed is zero after refresh")
	}
}

func TestRefreshHandler(t *testing.T) {
	src := &fakeSource{projects: []groundx.Project{{ID: "p1", Name: "Papers"}}}
	cache := newTestCache(src)

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	rec := httptest.NewRecorder()
	refreshHandler(cache)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp refreshResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal refresh: %v", err)
	}
	if !resp.Success || resp.ProjectCount != 1 {
		t.Fatalf("response = %+v, want success with 1 project", resp)
	}
}

func TestRefreshHandlerFailure(t *testing.T) {
	src := &fakeSource{listErr: fmt.Errorf("remote unavailable")}
	cache := newTestCache(src)

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	rec := httptest.NewRecorder()
	refreshHandler(cache)(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	var resp refreshResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal refresh: %v", err)
	}
	if resp.Success || resp.ProjectCount != 0 {
		t.Fatalf("response = %+v, want failure with 0 projects", resp)
	}
}

func TestRefreshHandlerMethodNotAllowed(t *testing.T) {
	cache := newTestCache(&fakeSource{})
	req := httptest.NewRequest(http.MethodGet, "/refresh", nil)
	rec := httptest.NewRecorder()
	refreshHandler(cache)(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
