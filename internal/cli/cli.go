// Package cli implements the scorelift command-line interface.
package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/scorelift/scorelift/pkg/cache"
	"github.com/scorelift/scorelift/pkg/pipeline"
	"github.com/scorelift/scorelift/pkg/runs"
)

// appName is the application name used for directories and display.
const appName = "scorelift"

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/scorelift/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Backend Factories
// =============================================================================

// newCache creates the recognition cache for the configured backend.
// Failures to set up a cache degrade to NullCache rather than aborting;
// a run without caching is slower but correct.
func newCache(ctx context.Context, cfg *pipeline.Config, noCache bool) cache.Cache {
	logger := loggerFromContext(ctx)
	if noCache || cfg.Cache.Backend == "none" {
		return cache.NewNullCache()
	}
	if cfg.Cache.Backend == "redis" {
		c, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn("redis cache unavailable, caching disabled", "err", err)
			return cache.NewNullCache()
		}
		return c
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		logger.Warn("file cache unavailable, caching disabled", "err", err)
		return cache.NewNullCache()
	}
	return c
}

// newRunStore creates the run record store for the configured backend.
// A nil store (with nil error) means run records are disabled.
func newRunStore(ctx context.Context, cfg *pipeline.Config) (runs.Store, error) {
	switch cfg.Runs.Backend {
	case "none":
		return nil, nil
	case "mongo":
		return runs.NewMongoStore(ctx, cfg.Runs.MongoURI)
	default:
		return runs.NewFileStore("")
	}
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
