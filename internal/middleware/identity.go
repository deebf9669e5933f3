package middleware

// identity.go holds the context keys set by JWTAuth and helpers to read
// them back.

import (
    "github.com/labstack/echo/v4"

    "github.com/sunapee-sound/community-backend/internal/utils"
)

const (
    ctxUserID = "user_id"
    ctxRole   = "role"
    ctxClaims = "claims"
)

// CurrentClaims returns the verified token claims stored by JWTAuth.
func CurrentClaims(c echo.Context) (utils.Claims, bool) {
    cl, ok := c.Get(ctxClaims).(utils.Claims)
    return cl, ok
}

// CurrentUserID returns the authenticated user's id, or 0 when the
// request is anonymous.
func CurrentUserID(c echo.Context) uint64 {
    id, _ := c.Get(ctxUserID).(uint64)
    return id
}
