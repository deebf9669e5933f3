package middleware

import (
    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/rs/zerolog"
)

// RequestID sets X-Request-ID on the request and response, generating a
// UUID when the client did not send one.
func RequestID() echo.MiddlewareFunc {
    return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
        Generator: uuid.NewString,
    })
}

// RequestLogger writes one zerolog line per request.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            ev := log.Info()
            if v.Error != nil || v.Status >= 500 {
                ev = log.Error().Err(v.Error)
            }
            ev.Str("method", v.Method).
                Str("uri", v.URI).
                Int("status", v.Status).
                Dur("latency", v.Latency).
                Str("remote_ip", v.RemoteIP).
                Str("request_id", v.RequestID).
                Msg("request")
            return nil
        },
    })
}
