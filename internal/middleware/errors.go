package middleware

import (
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
)

// Fail writes the standard error body {"success": false, "error": msg}.
func Fail(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"success": false, "error": msg})
}

// ErrorHandler renders every error that reaches Echo as the standard error
// body.  echo.HTTPError keeps its status and message; anything else is a
// 500 whose detail is logged but not shown to the client.  Unknown routes
// answer "Endpoint not found".
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        status := http.StatusInternalServerError
        msg := "Internal server error"

        var he *echo.HTTPError
        if errors.As(err, &he) {
            status = he.Code
            switch {
            case status == http.StatusNotFound && errors.Is(err, echo.ErrNotFound):
                msg = "Endpoint not found"
            case status == http.StatusMethodNotAllowed:
                msg = "Endpoint not found"
                status = http.StatusNotFound
            default:
                msg = fmt.Sprint(he.Message)
            }
        }
        if status >= http.StatusInternalServerError {
            log.Error().Err(err).
                Str("method", c.Request().Method).
                Str("path", c.Request().URL.Path).
                Msg("request failed")
        }

        if c.Request().Method == http.MethodHead {
            _ = c.NoContent(status)
            return
        }
        _ = Fail(c, status, msg)
    }
}
