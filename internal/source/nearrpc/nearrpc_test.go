package nearrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/web3-frozen/near-dashboard/internal/upstream"
)

func TestValidators(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Method != "validators" || len(req.Params) != 1 || req.Params[0] != nil {
			t.Errorf("request = %+v", req)
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":123,"result":{"current_validators":[
			{"account_id":"a.poolv1.near","stake":"2000000000000000000000000000","num_expected_blocks":10},
			{"account_id":"b.poolv1.near","stake":"1000000000000000000000000000","num_expected_blocks":0}
		]}}`))
	}))
	defer srv.Close()

	c := New(upstream.New(upstream.Options{Provider: "near-rpc"}), srv.URL)
	vs, err := c.Validators(context.Background())
	if err != nil {
		t.Fatalf("Validators error: %v", err)
	}
	if len(vs) != 2 {
		t.Fatalf("len = %d, want 2", len(vs))
	}
	if vs[0].AccountID != "a.poolv1.near" || *vs[0].NumExpectedBlocks != 10 {
		t.Errorf("vs[0] = %+v", vs[0])
	}
}

func TestValidatorsRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":123,"error":{"code":-32000,"message":"Server error"}}`))
	}))
	defer srv.Close()

	c := New(upstream.New(upstream.Options{Provider: "near-rpc"}), srv.URL)
	if _, err := c.Validators(context.Background()); err == nil {
		t.Error("expected rpc error, got nil")
	}
}
