package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/web3-frozen/near-dashboard/internal/dashboard"
)

// Pages builds and invalidates dashboard pages.
type Pages interface {
	Page(ctx context.Context, slug string) (*dashboard.Page, error)
	Refresh(ctx context.Context, slug string) ([]string, error)
}

// Home lists the dashboard pages and data sources.
func Home() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dashboard.Home())
	}
}

// Page serves one dashboard page. Upstream outages come back as 200 with
// degraded set; only an unknown page is an error.
func Page(svc Pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "page")
		p, err := svc.Page(r.Context(), slug)
		if errors.Is(err, dashboard.ErrUnknownPage) {
			http.Error(w, `{"error":"unknown page"}`, http.StatusNotFound)
			return
		}
		if err != nil {
			slog.Error("build page", "page", slug, "error", err)
			http.Error(w, `{"error":"failed to build page"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p)
	}
}

// RefreshCache drops cached upstream results for ?page=, or for every page
// when the parameter is absent.
func RefreshCache(svc Pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.URL.Query().Get("page")
		keys, err := svc.Refresh(r.Context(), slug)
		if errors.Is(err, dashboard.ErrUnknownPage) {
			http.Error(w, `{"error":"unknown page"}`, http.StatusBadRequest)
			return
		}
		if err != nil {
			slog.Error("refresh cache", "page", slug, "error", err)
			http.Error(w, `{"error":"cache unavailable"}`, http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"invalidated": len(keys)})
	}
}
