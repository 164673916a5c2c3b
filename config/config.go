package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds the process configuration read once at startup. The TMDB
// credential may legitimately be absent: the process still starts, and the
// gateway reports a configuration error on every call instead.
type Config struct {
	TMDBAPIKey          string
	Port                string
	Strategy            string // "bulk" or "live"
	PrefetchConcurrency int    // >1 enables parallel page prefetch in bulk mode
}

// CredentialPresent reports whether upstream calls can succeed at all.
func (c Config) CredentialPresent() bool {
	return c.TMDBAPIKey != ""
}

func Load() Config {
	cfg := Config{
		TMDBAPIKey:          strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		Port:                strings.TrimSpace(os.Getenv("PORT")),
		Strategy:            strings.ToLower(strings.TrimSpace(os.Getenv("CATALOG_STRATEGY"))),
		PrefetchConcurrency: 1,
	}

	if cfg.TMDBAPIKey == "" {
		log.Printf("[config] warning: TMDB_API_KEY not set; every upstream call will fail")
	}
	if cfg.Port == "" {
		cfg.Port = "7000"
	}
	if cfg.Strategy != "bulk" {
		cfg.Strategy = "live"
	}
	if raw := strings.TrimSpace(os.Getenv("CATALOG_PREFETCH_CONCURRENCY")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cfg.PrefetchConcurrency = parsed
		} else {
			log.Printf("[config] ignoring invalid CATALOG_PREFETCH_CONCURRENCY %q", raw)
		}
	}
	return cfg
}
