package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"

    "github.com/sunapee-sound/community-backend/internal/config"
)

func limitedServer(t *testing.T, cfg config.RateLimitConfig) (*echo.Echo, *miniredis.Miniredis) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })

    e := echo.New()
    setUser := func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Header.Get("X-Test-User") == "7" {
                c.Set(ctxUserID, uint64(7))
            }
            return next(c)
        }
    }
    e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
        setUser, NewTokenBucket(cfg, rdb, "slow down", zerolog.Nop()))
    return e, mr
}

func hit(e *echo.Echo, ip, user string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(http.MethodGet, "/x", nil)
    req.Header.Set("X-Real-Ip", ip)
    if user != "" {
        req.Header.Set("X-Test-User", user)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func bucket(strategy string) config.RateLimitConfig {
    return config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   2,
        RefillInterval: time.Hour,
        TTL:            2 * time.Hour,
        KeyStrategy:    strategy,
        Prefix:         "rl:test",
    }
}

func TestTokenBucket_BlocksPerIP(t *testing.T) {
    e, mr := limitedServer(t, bucket("ip"))

    rec := hit(e, "10.0.0.1", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
    assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
    assert.Equal(t, http.StatusOK, hit(e, "10.0.0.1", "").Code)

    rec = hit(e, "10.0.0.1", "")
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.JSONEq(t, `{"success":false,"error":"slow down"}`, rec.Body.String())
    assert.Equal(t, "3600", rec.Header().Get("Retry-After"))

    // another client has its own bucket
    assert.Equal(t, http.StatusOK, hit(e, "10.0.0.2", "").Code)
    assert.True(t, mr.Exists("rl:test:ip:10.0.0.1"))
    assert.True(t, mr.Exists("rl:test:ip:10.0.0.2"))
}

func TestTokenBucket_UserStrategy(t *testing.T) {
    e, mr := limitedServer(t, bucket("user"))

    // same user from two addresses shares one bucket
    assert.Equal(t, http.StatusOK, hit(e, "10.0.0.1", "7").Code)
    assert.Equal(t, http.StatusOK, hit(e, "10.0.0.2", "7").Code)
    assert.Equal(t, http.StatusTooManyRequests, hit(e, "10.0.0.3", "7").Code)
    assert.True(t, mr.Exists("rl:test:user:7"))

    // anonymous callers fall back to the IP key
    assert.Equal(t, http.StatusOK, hit(e, "10.0.0.1", "").Code)
    assert.True(t, mr.Exists("rl:test:ip:10.0.0.1"))
}

func TestTokenBucket_RedisDownAllows(t *testing.T) {
    e, mr := limitedServer(t, bucket("ip"))
    mr.Close()

    for i := 0; i < 4; i++ {
        assert.Equal(t, http.StatusOK, hit(e, "10.0.0.1", "").Code)
    }
}
