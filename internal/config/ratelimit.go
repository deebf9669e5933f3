package config

import "time"

// RateLimitConfig parameterises one Redis token bucket.  Capacity tokens
// are available up front and RefillTokens are added every RefillInterval.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string // "ip" or "user"
    Prefix         string
}

// LoadRateLimitConfig returns the general /api bucket: 100 requests per
// 15 minutes per IP unless overridden by RATE_LIMIT_* variables.
func LoadRateLimitConfig() RateLimitConfig {
    return loadBucket("RATE_LIMIT", RateLimitConfig{
        Enabled:        true,
        Capacity:       100,
        RefillTokens:   100,
        RefillInterval: 15 * time.Minute,
        KeyStrategy:    "ip",
        Prefix:         "rl:api",
    })
}

// LoadSignupRateLimitConfig returns the stricter bucket applied to the
// signup endpoints: 5 attempts per hour per IP unless overridden by
// SIGNUP_RATE_LIMIT_* variables.
func LoadSignupRateLimitConfig() RateLimitConfig {
    return loadBucket("SIGNUP_RATE_LIMIT", RateLimitConfig{
        Enabled:        true,
        Capacity:       5,
        RefillTokens:   5,
        RefillInterval: time.Hour,
        KeyStrategy:    "ip",
        Prefix:         "rl:signup",
    })
}

func loadBucket(prefix string, def RateLimitConfig) RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool(prefix+"_ENABLED", def.Enabled),
        Capacity:       envInt(prefix+"_CAPACITY", def.Capacity),
        RefillTokens:   envInt(prefix+"_REFILL_TOKENS", def.RefillTokens),
        RefillInterval: envDur(prefix+"_REFILL_INTERVAL", def.RefillInterval),
        TTL:            envDur(prefix+"_TTL", 0),
        KeyStrategy:    getenv(prefix+"_KEY_STRATEGY", def.KeyStrategy),
        Prefix:         getenv(prefix+"_PREFIX", def.Prefix),
    }
    if cfg.Capacity < 1 { cfg.Capacity = 1 }
    if cfg.RefillTokens < 1 { cfg.RefillTokens = 1 }
    if cfg.RefillInterval <= 0 { cfg.RefillInterval = time.Second }
    minTTL := 2 * cfg.RefillInterval
    if cfg.TTL < minTTL { cfg.TTL = minTTL }
    return cfg
}
