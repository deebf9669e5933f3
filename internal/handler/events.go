package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/sunapee-sound/community-backend/internal/middleware"
    "github.com/sunapee-sound/community-backend/internal/model"
    "github.com/sunapee-sound/community-backend/internal/repository"
    "github.com/sunapee-sound/community-backend/internal/utils"
)

// EventStore is the subset of the event repository used by EventHandler.
type EventStore interface {
    List(ctx context.Context, f repository.EventFilter) ([]model.Event, error)
    GetByID(ctx context.Context, id uint64) (*model.Event, error)
    Create(ctx context.Context, ev *model.Event) error
    Update(ctx context.Context, ev *model.Event) error
    Deactivate(ctx context.Context, id uint64) error
}

// EventHandler serves /api/events.  Reads are public, writes are admin only.
type EventHandler struct {
    Events EventStore
    Now    func() time.Time
    Log    zerolog.Logger
}

func NewEventHandler(events EventStore, log zerolog.Logger) *EventHandler {
    return &EventHandler{Events: events, Now: time.Now, Log: log}
}

type eventReq struct {
    Title       string  `json:"title"`
    Date        string  `json:"date"`
    Venue       *string `json:"venue"`
    Description *string `json:"description"`
    Link        *string `json:"link"`
    Source      string  `json:"source"`
    Tags        *string `json:"tags"`
}

// validate trims the request and checks title and date.
func (r *eventReq) validate() string {
    r.Title = strings.TrimSpace(r.Title)
    r.Date = strings.TrimSpace(r.Date)
    if r.Title == "" || r.Date == "" {
        return "Title and date are required"
    }
    if !utils.IsDate(r.Date) {
        return "Date must be in YYYY-MM-DD format"
    }
    return ""
}

func (r eventReq) model() model.Event {
    return model.Event{
        Title:       r.Title,
        Date:        r.Date,
        Venue:       optionalText(r.Venue),
        Description: optionalText(r.Description),
        Link:        optionalText(r.Link),
        Source:      strings.TrimSpace(r.Source),
        Tags:        optionalText(r.Tags),
    }
}

// List handles GET /api/events?upcoming=true&limit=N.
func (h *EventHandler) List(c echo.Context) error {
    var f repository.EventFilter
    if c.QueryParam("upcoming") == "true" {
        f.From = utils.Today(h.Now())
    }
    if s := c.QueryParam("limit"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil || n < 0 {
            return middleware.Fail(c, http.StatusBadRequest, "limit must be a non-negative integer")
        }
        f.Limit = n
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    events, err := h.Events.List(ctx, f)
    if err != nil {
        h.Log.Error().Err(err).Msg("list events")
        return middleware.Fail(c, http.StatusInternalServerError, "Error fetching events")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(events), "events": events})
}

// Get handles GET /api/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return middleware.Fail(c, http.StatusBadRequest, "invalid event id")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    ev, err := h.Events.GetByID(ctx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return middleware.Fail(c, http.StatusNotFound, "Event not found")
    }
    if err != nil {
        h.Log.Error().Err(err).Uint64("id", id).Msg("get event")
        return middleware.Fail(c, http.StatusInternalServerError, "Error fetching event")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "event": ev})
}

// Create handles POST /api/events.
func (h *EventHandler) Create(c echo.Context) error {
    var req eventReq
    if err := c.Bind(&req); err != nil {
        return middleware.Fail(c, http.StatusBadRequest, "invalid request body")
    }
    if msg := req.validate(); msg != "" {
        return middleware.Fail(c, http.StatusBadRequest, msg)
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    ev := req.model()
    if err := h.Events.Create(ctx, &ev); err != nil {
        h.Log.Error().Err(err).Msg("create event")
        return middleware.Fail(c, http.StatusInternalServerError, "An error occurred while creating the event")
    }
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Event created successfully", "id": ev.ID})
}

// Update handles PUT /api/events/:id.  All editable fields are replaced.
func (h *EventHandler) Update(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return middleware.Fail(c, http.StatusBadRequest, "invalid event id")
    }
    var req eventReq
    if err := c.Bind(&req); err != nil {
        return middleware.Fail(c, http.StatusBadRequest, "invalid request body")
    }
    if msg := req.validate(); msg != "" {
        return middleware.Fail(c, http.StatusBadRequest, msg)
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    ev := req.model()
    ev.ID = id
    err := h.Events.Update(ctx, &ev)
    if errors.Is(err, repository.ErrNotFound) {
        return middleware.Fail(c, http.StatusNotFound, "Event not found")
    }
    if err != nil {
        h.Log.Error().Err(err).Uint64("id", id).Msg("update event")
        return middleware.Fail(c, http.StatusInternalServerError, "Error updating event")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Event updated successfully"})
}

// Delete handles DELETE /api/events/:id (soft delete).
func (h *EventHandler) Delete(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return middleware.Fail(c, http.StatusBadRequest, "invalid event id")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    err := h.Events.Deactivate(ctx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return middleware.Fail(c, http.StatusNotFound, "Event not found")
    }
    if err != nil {
        h.Log.Error().Err(err).Uint64("id", id).Msg("delete event")
        return middleware.Fail(c, http.StatusInternalServerError, "Error deleting event")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Event deleted successfully"})
}
