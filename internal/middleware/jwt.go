package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/sunapee-sound/community-backend/internal/model"
    "github.com/sunapee-sound/community-backend/internal/utils"
)

// ActiveUserFinder loads an active account by id.  *repository.UserRepo
// satisfies it.
type ActiveUserFinder interface {
    GetActiveByID(ctx context.Context, id uint64) (model.User, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the user id, role and claims into the request context.  When
// users is non-nil the account is reloaded so deactivated users are
// rejected and role changes take effect before the token expires.
// Handlers read the values via CurrentUserID and CurrentClaims.
func JWTAuth(secret string, users ActiveUserFinder) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return Fail(c, http.StatusUnauthorized, "Authentication required")
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return Fail(c, http.StatusUnauthorized, "Invalid or expired token")
            }

            if users != nil {
                ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
                u, err := users.GetActiveByID(ctx, claims.UserID)
                cancel()
                if err != nil {
                    return Fail(c, http.StatusUnauthorized, "Invalid token")
                }
                claims.Username, claims.Email, claims.Role = u.Username, u.Email, u.Role
            }

            c.Set(ctxUserID, claims.UserID)
            c.Set(ctxRole, claims.Role)
            c.Set(ctxClaims, claims)
            return next(c)
        }
    }
}
