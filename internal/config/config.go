package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	infisical "github.com/infisical/go-sdk"
)

type Config struct {
	Port           string
	FrontendOrigin string
	// RedisURL selects the Redis cache; empty keeps results in process.
	RedisURL       string
	RedisPassword  string
	FlipsideAPIKey string

	LlamaBaseURL    string
	FlipsideBaseURL string
	NearRPCURL      string

	Chain        string
	ReferenceDEX string
	Window       time.Duration
	FetchWorkers int
	LlamaRPS     float64
	HTTPTimeout  time.Duration
	CacheTTL     time.Duration

	QueriesFile string
}

func Load() Config {
	cfg := Config{
		Port:           envOr("PORT", "8080"),
		FrontendOrigin: envOr("FRONTEND_ORIGIN", "*"),
		RedisURL:       os.Getenv("REDIS_URL"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		FlipsideAPIKey: os.Getenv("FLIPSIDE_API_KEY"),

		LlamaBaseURL:    envOr("LLAMA_BASE_URL", "https://api.llama.fi"),
		FlipsideBaseURL: envOr("FLIPSIDE_BASE_URL", "https://node-api.flipsidecrypto.com"),
		NearRPCURL:      envOr("NEAR_RPC_URL", "https://rpc.mainnet.near.org/"),

		Chain:        envOr("DEFI_CHAIN", "Near"),
		ReferenceDEX: envOr("DEFI_REFERENCE_DEX", "Ref Finance"),
		Window:       time.Duration(envInt("DEFI_WINDOW_DAYS", 365)) * 24 * time.Hour,
		FetchWorkers: envInt("DEFI_FETCH_WORKERS", 4),
		LlamaRPS:     envFloat("LLAMA_RPS", 10),
		HTTPTimeout:  envDuration("HTTP_TIMEOUT", 30*time.Second),
		CacheTTL:     envDuration("CACHE_TTL", time.Hour),

		QueriesFile: os.Getenv("QUERIES_FILE"),
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL",
		"http://infisical-infisical-standalone-infisical.infisical.svc.cluster.local:8080")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	if _, err := client.Auth().UniversalAuthLogin(clientID, clientSecret); err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	secrets := map[string]*string{
		"REDIS_PASSWORD":   &cfg.RedisPassword,
		"FLIPSIDE_API_KEY": &cfg.FlipsideAPIKey,
	}

	for key, target := range secrets {
		if *target != "" {
			continue // env wins
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		slog.Warn("invalid number in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
