package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It assumes JWTAuth
// ran earlier in the chain and stored the role in the context.  Requests
// whose role is missing or not allowed get 403 "Admin access required"
// when only the admin role is accepted, "forbidden" otherwise.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    msg := "forbidden"
    if len(roles) == 1 && roles[0] == "admin" {
        msg = "Admin access required"
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get(ctxRole).(string)
            if !ok || !allowed[role] {
                return Fail(c, http.StatusForbidden, msg)
            }
            return next(c)
        }
    }
}
