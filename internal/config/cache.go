package config

import (
    "os"
    "time"
)

// CacheConfig defines settings for the entity cache backed by Redis.
// When Enabled is false or no Redis client is configured, caching is
// disabled and every read goes to the database.  TTL bounds how long a
// cached entity or collection may be served before it expires on its
// own; writes invalidate the affected keys immediately, so the TTL is
// only a backstop.  Prefix namespaces all cache keys.
type CacheConfig struct {
    Enabled bool
    TTL     time.Duration
    Prefix  string
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled: getenv("CACHE_ENABLED", "true") == "true",
        TTL:     parseDur(getenv("CACHE_TTL", "60s")),
        Prefix:  getenv("CACHE_PREFIX", "kanban"),
    }
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseDur(s string) time.Duration {
    d, err := time.ParseDuration(s)
    if err != nil {
        return time.Minute
    }
    return d
}
