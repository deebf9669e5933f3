package handler // declare the package name; contains HTTP handlers

import (
    "net/http"          // net/http provides status codes and response helpers
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Version is reported by the index endpoint.
const Version = "1.0.0"

var started = time.Now()

// Health is a simple health‑check endpoint used by load balancers and
// monitoring systems to verify that the service is running.  It reports
// the current time and the process uptime in seconds.
func Health(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "status":    "healthy",
        "timestamp": time.Now().UTC().Format(time.RFC3339Nano),
        "uptime":    time.Since(started).Seconds(),
    })
}

// Index lists the public API surface.
func Index(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "message": "Sunapee Sound Project API",
        "version": Version,
        "endpoints": echo.Map{
            "auth": echo.Map{
                "register": "POST /api/auth/register",
                "login":    "POST /api/auth/login",
                "verify":   "GET /api/auth/verify",
            },
            "notifications": echo.Map{
                "signup":      "POST /api/notifications/signup",
                "list":        "GET /api/notifications",
                "unsubscribe": "DELETE /api/notifications/:email",
            },
            "openmic": echo.Map{
                "signup":         "POST /api/openmic/signup",
                "schedule":       "GET /api/openmic/schedule",
                "scheduleByDate": "GET /api/openmic/schedule/:date",
                "cancel":         "DELETE /api/openmic/:id",
            },
            "newsletter": echo.Map{
                "signup":      "POST /api/newsletter/signup",
                "list":        "GET /api/newsletter",
                "unsubscribe": "DELETE /api/newsletter/:email",
            },
            "events": echo.Map{
                "list":   "GET /api/events",
                "get":    "GET /api/events/:id",
                "create": "POST /api/events",
                "update": "PUT /api/events/:id",
                "delete": "DELETE /api/events/:id",
            },
            "videos": echo.Map{
                "list":   "GET /api/videos",
                "get":    "GET /api/videos/:id",
                "create": "POST /api/videos",
                "update": "PUT /api/videos/:id",
                "delete": "DELETE /api/videos/:id",
            },
        },
    })
}
