package handler

import (
    "context"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
)

// dbTimeout bounds every database round trip made by a handler.
const dbTimeout = 5 * time.Second

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// optionalText returns nil for blank input and the trimmed value otherwise.
func optionalText(s *string) *string {
    if s == nil {
        return nil
    }
    v := strings.TrimSpace(*s)
    if v == "" {
        return nil
    }
    return &v
}
