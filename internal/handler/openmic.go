package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/sunapee-sound/community-backend/internal/middleware"
    "github.com/sunapee-sound/community-backend/internal/service"
    "github.com/sunapee-sound/community-backend/internal/utils"
)

// OpenMicHandler exposes the open-mic scheduling engine under /api/openmic.
type OpenMicHandler struct {
    Svc service.OpenMicService
    Now func() time.Time
    Log zerolog.Logger
}

func NewOpenMicHandler(svc service.OpenMicService, log zerolog.Logger) *OpenMicHandler {
    return &OpenMicHandler{Svc: svc, Now: time.Now, Log: log}
}

// Signup handles POST /api/openmic/signup.
func (h *OpenMicHandler) Signup(c echo.Context) error {
    var req service.SignupRequest
    if err := c.Bind(&req); err != nil {
        return middleware.Fail(c, http.StatusBadRequest, "invalid request body")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    res, err := h.Svc.SubmitSignup(ctx, req)
    if err != nil {
        return h.fail(c, err, "An error occurred while processing your signup")
    }

    msg := "Successfully signed up for open mic!"
    if res.IsReserve {
        msg = "Added to reserve list!"
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":   true,
        "message":   msg,
        "id":        res.ID,
        "isReserve": res.IsReserve,
    })
}

// ScheduleByDate handles GET /api/openmic/schedule/:date.
func (h *OpenMicHandler) ScheduleByDate(c echo.Context) error {
    date := c.Param("date")

    ctx, cancel := dbCtx(c)
    defer cancel()

    day, err := h.Svc.ScheduleForDate(ctx, date)
    if err != nil {
        return h.fail(c, err, "Error fetching schedule")
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":     true,
        "date":        date,
        "signups":     day.Regular,
        "reserveList": day.Reserve,
    })
}

// Upcoming handles GET /api/openmic/schedule.  "Today" is the current UTC
// date.
func (h *OpenMicHandler) Upcoming(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()

    sched, err := h.Svc.UpcomingSchedule(ctx, utils.Today(h.Now()))
    if err != nil {
        return h.fail(c, err, "Error fetching schedules")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "schedule": sched})
}

// Cancel handles DELETE /api/openmic/:id.
func (h *OpenMicHandler) Cancel(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        // no signup can carry a non-numeric or zero id
        return middleware.Fail(c, http.StatusNotFound, service.MsgSignupNotFound)
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    if err := h.Svc.CancelSignup(ctx, id); err != nil {
        return h.fail(c, err, "Error cancelling signup")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Signup cancelled"})
}

// fail maps engine errors to status codes.  Dependency and unexpected
// errors are logged in full and answered with the generic message.
func (h *OpenMicHandler) fail(c echo.Context, err error, generic string) error {
    var (
        ve *service.ValidationError
        ce *service.ConflictError
        nf *service.NotFoundError
    )
    switch {
    case errors.As(err, &ve):
        return middleware.Fail(c, http.StatusBadRequest, ve.Msg)
    case errors.As(err, &ce):
        return middleware.Fail(c, http.StatusBadRequest, ce.Msg)
    case errors.As(err, &nf):
        return middleware.Fail(c, http.StatusNotFound, nf.Msg)
    }
    h.Log.Error().Err(err).Str("path", c.Path()).Msg("open mic request failed")
    return middleware.Fail(c, http.StatusInternalServerError, generic)
}
