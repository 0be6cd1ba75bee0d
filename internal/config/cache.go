package config

import (
    "os"
    "strconv"
    "time"
)

// DirectoryCacheConfig defines settings for the read-through Redis cache in
// front of the game/player directory.  When Enabled is false or no Redis
// client is configured, every lookup falls through to the database.  TTL
// defines the lifetime of cached snapshots; it should stay short because
// host edits to game settings bypass this service.
type DirectoryCacheConfig struct {
    Enabled bool
    TTL     time.Duration
}

// LoadDirectoryCacheConfig reads environment variables to build a
// DirectoryCacheConfig.  Defaults are used when variables are not set.
func LoadDirectoryCacheConfig() DirectoryCacheConfig {
    return DirectoryCacheConfig{
        Enabled: getenv("DIRECTORY_CACHE_ENABLED", "true") == "true",
        TTL:     parseDur(getenv("DIRECTORY_CACHE_TTL", "30s")),
    }
}

// Helper functions reused from redis.go and ratelimit.go
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func atoi(s string) int {
    i, _ := strconv.Atoi(s)
    return i
}

func parseDur(s string) time.Duration {
    d, err := time.ParseDuration(s)
    if err != nil {
        return time.Second
    }
    return d
}
