package flipside

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/web3-frozen/near-dashboard/internal/upstream"
)

func TestLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := "/api/v2/queries/abc-123/data/latest"
		if r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		_, _ = w.Write([]byte(`[{"UTC_DATE":"2023-01-01 00:00:00.000","TRANSACTIONS":1200}]`))
	}))
	defer srv.Close()

	c := New(upstream.New(upstream.Options{Provider: "flipside"}), srv.URL)
	rows, err := c.Latest(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("Latest error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0]["TRANSACTIONS"] != float64(1200) {
		t.Errorf("TRANSACTIONS = %v, want 1200", rows[0]["TRANSACTIONS"])
	}
}

func TestLatestEmptyID(t *testing.T) {
	c := New(upstream.New(upstream.Options{Provider: "flipside"}), "")
	if _, err := c.Latest(context.Background(), ""); err == nil {
		t.Error("expected error for empty query id, got nil")
	}
}

func TestLatestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(upstream.New(upstream.Options{Provider: "flipside"}), srv.URL)
	if _, err := c.Latest(context.Background(), "q"); err == nil {
		t.Error("expected error for 500, got nil")
	}
}
