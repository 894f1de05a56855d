package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/web3-frozen/near-dashboard/internal/dashboard"
)

// mockPages implements Pages for testing.
type mockPages struct {
	page       *dashboard.Page
	err        error
	refreshErr error
	refreshed  []string
}

func (m *mockPages) Page(_ context.Context, slug string) (*dashboard.Page, error) {
	if m.err != nil {
		return nil, m.err
	}
	switch slug {
	case dashboard.Activity, dashboard.Performance, dashboard.Staking, dashboard.DeFi:
		p := *m.page
		p.Slug = slug
		return &p, nil
	}
	return nil, fmt.Errorf("%w: %q", dashboard.ErrUnknownPage, slug)
}

func (m *mockPages) Refresh(_ context.Context, slug string) ([]string, error) {
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	if slug == "nft" {
		return nil, dashboard.ErrUnknownPage
	}
	m.refreshed = append(m.refreshed, slug)
	return []string{"a", "b"}, nil
}

func router(svc Pages) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/pages", Home())
	r.Get("/api/pages/{page}", Page(svc))
	r.Post("/api/cache/refresh", RefreshCache(svc))
	return r
}

func TestHomeHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/pages", nil)
	rec := httptest.NewRecorder()
	router(&mockPages{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var idx dashboard.Index
	if err := json.NewDecoder(rec.Body).Decode(&idx); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(idx.Pages) != 4 {
		t.Errorf("len(Pages) = %d, want 4", len(idx.Pages))
	}
}

func TestPageHandler(t *testing.T) {
	svc := &mockPages{page: &dashboard.Page{Degraded: true, Sections: []dashboard.Section{{Title: "Transactions"}}}}

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"activity", "/api/pages/activity", http.StatusOK},
		{"defi", "/api/pages/defi", http.StatusOK},
		{"unknown", "/api/pages/nft", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			router(svc).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/pages/staking", nil)
	rec := httptest.NewRecorder()
	router(svc).ServeHTTP(rec, req)
	var p dashboard.Page
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Slug != "staking" || !p.Degraded {
		t.Errorf("page = %+v, want degraded staking page", p)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestPageHandlerInternalError(t *testing.T) {
	svc := &mockPages{err: errors.New("boom")}
	req := httptest.NewRequest(http.MethodGet, "/api/pages/activity", nil)
	rec := httptest.NewRecorder()
	router(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestRefreshCacheHandler(t *testing.T) {
	svc := &mockPages{}

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"all pages", "", http.StatusOK},
		{"one page", "?page=defi", http.StatusOK},
		{"unknown page", "?page=nft", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/cache/refresh"+tt.query, nil)
			rec := httptest.NewRecorder()
			router(svc).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
	if len(svc.refreshed) != 2 || svc.refreshed[0] != "" || svc.refreshed[1] != "defi" {
		t.Errorf("refreshed = %q", svc.refreshed)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/cache/refresh", nil)
	rec := httptest.NewRecorder()
	router(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET refresh: status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestRefreshCacheUnavailable(t *testing.T) {
	svc := &mockPages{refreshErr: errors.New("redis down")}
	req := httptest.NewRequest(http.MethodPost, "/api/cache/refresh", nil)
	rec := httptest.NewRecorder()
	router(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
