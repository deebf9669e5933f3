package config

// Redis backs rate limiting, the response cache and the open-mic signup
// lock.  If the server cannot be reached at startup NewRedisClient returns
// nil and callers degrade gracefully by disabling those features.

import (
    "context"
    "crypto/tls"
    "os"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings read from REDIS_* variables.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
    Disabled bool
}

// LoadRedisConfig reads REDIS_HOST/REDIS_PORT or REDIS_ADDR (host:port
// shorthand), REDIS_PASSWORD, REDIS_DB, REDIS_TLS and REDIS_DISABLED.
func LoadRedisConfig() RedisConfig {
    addr := os.Getenv("REDIS_ADDR")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    tlsEnv := os.Getenv("REDIS_TLS")
    return RedisConfig{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
        TLS:      strings.EqualFold(tlsEnv, "true") || tlsEnv == "1",
        Disabled: envBool("REDIS_DISABLED", false),
    }
}

// NewRedisClient instantiates a Redis client and pings it with a short
// timeout.  The returned client is nil when Redis is disabled or
// unreachable.
func NewRedisClient(rc RedisConfig) *redis.Client {
    if rc.Disabled {
        return nil
    }
    var tlsConf *tls.Config
    if rc.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      rc.Addr,
        Password:  rc.Password,
        DB:        rc.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
