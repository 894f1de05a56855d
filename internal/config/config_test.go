package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEnvOr(t *testing.T) {
	// Unset key returns fallback
	os.Unsetenv("TEST_ENVOR_KEY")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "default" {
		t.Errorf("envOr unset key = %q, want %q", got, "default")
	}

	// Set key returns value
	t.Setenv("TEST_ENVOR_KEY", "custom")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "custom" {
		t.Errorf("envOr set key = %q, want %q", got, "custom")
	}

	// Empty string returns fallback
	t.Setenv("TEST_ENVOR_KEY", "")
	if got := envOr("TEST_ENVOR_KEY", "fallback"); got != "fallback" {
		t.Errorf("envOr empty key = %q, want %q", got, "fallback")
	}
}

func TestEnvNumbers(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"unset", "", 7},
		{"valid", "12", 12},
		{"garbage", "twelve", 7},
		{"zero", "0", 7},
		{"negative", "-3", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_INT", tt.value)
			if got := envInt("TEST_ENV_INT", 7); got != tt.want {
				t.Errorf("envInt(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}

	t.Setenv("TEST_ENV_DUR", "90s")
	if got := envDuration("TEST_ENV_DUR", time.Minute); got != 90*time.Second {
		t.Errorf("envDuration = %v", got)
	}
	t.Setenv("TEST_ENV_DUR", "soon")
	if got := envDuration("TEST_ENV_DUR", time.Minute); got != time.Minute {
		t.Errorf("envDuration bad value = %v", got)
	}

	t.Setenv("TEST_ENV_FLOAT", "2.5")
	if got := envFloat("TEST_ENV_FLOAT", 1); got != 2.5 {
		t.Errorf("envFloat = %v", got)
	}
}

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "FRONTEND_ORIGIN", "REDIS_URL", "REDIS_PASSWORD", "FLIPSIDE_API_KEY",
		"LLAMA_BASE_URL", "FLIPSIDE_BASE_URL", "NEAR_RPC_URL",
		"DEFI_CHAIN", "DEFI_REFERENCE_DEX", "DEFI_WINDOW_DAYS", "DEFI_FETCH_WORKERS",
		"LLAMA_RPS", "HTTP_TIMEOUT", "CACHE_TTL", "QUERIES_FILE",
		"INFISICAL_CLIENT_ID", "INFISICAL_CLIENT_SECRET",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.FrontendOrigin != "*" {
		t.Errorf("FrontendOrigin = %q, want %q", cfg.FrontendOrigin, "*")
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL = %q, want empty", cfg.RedisURL)
	}
	if cfg.Chain != "Near" || cfg.ReferenceDEX != "Ref Finance" {
		t.Errorf("Chain/ReferenceDEX = %q/%q", cfg.Chain, cfg.ReferenceDEX)
	}
	if cfg.Window != 365*24*time.Hour {
		t.Errorf("Window = %v, want 365 days", cfg.Window)
	}
	if cfg.FetchWorkers != 4 {
		t.Errorf("FetchWorkers = %d, want 4", cfg.FetchWorkers)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL)
	}
	if cfg.NearRPCURL != "https://rpc.mainnet.near.org/" {
		t.Errorf("NearRPCURL = %q", cfg.NearRPCURL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("FLIPSIDE_API_KEY", "test-key")
	t.Setenv("FRONTEND_ORIGIN", "http://localhost:3000")
	t.Setenv("DEFI_CHAIN", "Aurora")
	t.Setenv("DEFI_WINDOW_DAYS", "30")
	t.Setenv("DEFI_FETCH_WORKERS", "8")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.FlipsideAPIKey != "test-key" {
		t.Errorf("FlipsideAPIKey = %q, want %q", cfg.FlipsideAPIKey, "test-key")
	}
	if cfg.FrontendOrigin != "http://localhost:3000" {
		t.Errorf("FrontendOrigin = %q, want %q", cfg.FrontendOrigin, "http://localhost:3000")
	}
	if cfg.Chain != "Aurora" {
		t.Errorf("Chain = %q", cfg.Chain)
	}
	if cfg.Window != 30*24*time.Hour {
		t.Errorf("Window = %v", cfg.Window)
	}
	if cfg.FetchWorkers != 8 {
		t.Errorf("FetchWorkers = %d", cfg.FetchWorkers)
	}
}

func TestLoadQueriesEmbedded(t *testing.T) {
	q, err := LoadQueries("")
	if err != nil {
		t.Fatalf("LoadQueries: %v", err)
	}
	if q.Activity.Scorecard != "b39ba359-ab65-4914-a205-59d26c27b449" {
		t.Errorf("activity scorecard = %q", q.Activity.Scorecard)
	}
	if q.Staking.Supply != "0c642aa3-528d-43ee-8eed-fbd6adc3ff96" {
		t.Errorf("staking supply = %q", q.Staking.Supply)
	}
}

func TestLoadQueriesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queries.yaml")
	body := `
activity: {scorecard: a1, chart: a2}
performance: {scorecard: p1, chart: p2}
staking: {supply: s1}
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	q, err := LoadQueries(path)
	if err != nil {
		t.Fatalf("LoadQueries: %v", err)
	}
	if q.Performance.Chart != "p2" {
		t.Errorf("performance chart = %q", q.Performance.Chart)
	}

	if _, err := LoadQueries(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseQueriesRejectsIncomplete(t *testing.T) {
	_, err := parseQueries([]byte("activity: {scorecard: a1}\n"))
	if err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Errorf("err = %v, want missing id error", err)
	}
	if _, err := parseQueries([]byte("activity: [")); err == nil {
		t.Error("expected yaml error")
	}
}
