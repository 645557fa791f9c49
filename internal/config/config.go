// Package config loads and validates the process configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Flags are the enumerated feature switches of the pipeline.
type Flags struct {
	// UseLiteModel enables tier routing. When false every chain runs
	// on the high model.
	UseLiteModel bool
	// UseQueryGenerator enables the query-generator chain. When false
	// the hybrid-search query is the joined brief keywords.
	UseQueryGenerator bool
	// UseStyleProfileKB enables rulebook and excerpt retrieval. When
	// false the analyzer outputs are used alone.
	UseStyleProfileKB bool
	// UseAutoRewrite enables the rewrite sub-step of the quality stage.
	UseAutoRewrite bool
}

// Config is the immutable process configuration, assembled once at
// startup and passed explicitly to the components that need it.
type Config struct {
	// Upstreams
	GeminiAPIKey string
	DatabaseURL  string
	RerankerURL  string // empty disables reranking

	// Server
	Port int

	// Pipeline
	Flags               Flags
	MaxParallelSections int
	RequestTimeout      time.Duration
	ExcerptTopK         int

	// Hybrid search
	SearchKPerSource int
	SearchFinalK     int
	SearchRRFK       int
	RerankTopK       int
}

// Load assembles the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RerankerURL:  os.Getenv("RERANKER_URL"),

		Port: envInt("PORT", 8080),

		Flags: Flags{
			UseLiteModel:      envBool("USE_LITE_MODEL", true),
			UseQueryGenerator: envBool("USE_QUERY_GENERATOR", true),
			UseStyleProfileKB: envBool("USE_STYLE_PROFILE_KB", true),
			UseAutoRewrite:    envBool("USE_AUTO_REWRITE", true),
		},
		MaxParallelSections: envInt("MAX_PARALLEL_SECTIONS", 4),
		RequestTimeout:      envDuration("REQUEST_TIMEOUT", 10*time.Minute),
		ExcerptTopK:         envInt("STYLE_EXCERPT_TOP_K", 5),

		SearchKPerSource: envInt("HYBRID_SEARCH_K", 20),
		SearchFinalK:     envInt("HYBRID_FINAL_K", 10),
		SearchRRFK:       envInt("RRF_K", 60),
		RerankTopK:       envInt("RERANKER_TOP_K", 5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("config error: GEMINI_API_KEY is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}
	if c.MaxParallelSections < 1 {
		return fmt.Errorf("config error: MAX_PARALLEL_SECTIONS must be at least 1")
	}
	if c.SearchFinalK < 1 || c.SearchKPerSource < 1 {
		return fmt.Errorf("config error: hybrid search limits must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config error: REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
