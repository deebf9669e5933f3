package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/sunapee-sound/community-backend/internal/middleware"
    "github.com/sunapee-sound/community-backend/internal/model"
    "github.com/sunapee-sound/community-backend/internal/repository"
    "github.com/sunapee-sound/community-backend/internal/utils"
)

// SubscriberStore is implemented by repository.SubscriberRepo.
type SubscriberStore interface {
    HasActiveNotification(ctx context.Context, email string) (bool, error)
    CreateNotification(ctx context.Context, n *model.NotificationSignup) error
    ListNotifications(ctx context.Context) ([]model.NotificationSignup, error)
    DeactivateNotification(ctx context.Context, email string) error
    HasActiveNewsletter(ctx context.Context, email string) (bool, error)
    CreateNewsletter(ctx context.Context, s *model.NewsletterSubscriber) error
    ListNewsletter(ctx context.Context) ([]model.NewsletterSubscriber, error)
    DeactivateNewsletter(ctx context.Context, email string) error
}

// Welcomer sends welcome messages off the request path.  It is
// implemented by notify.Dispatcher.
type Welcomer interface {
    Async(ctx context.Context, fn func(ctx context.Context))
    NotifyWelcome(ctx context.Context, n model.NotificationSignup) map[model.Channel]model.Outcome
    NotifyNewsletterWelcome(ctx context.Context, sub model.NewsletterSubscriber) model.Outcome
}

// SubscriberHandler serves /api/notifications and /api/newsletter.
type SubscriberHandler struct {
    Store   SubscriberStore
    Welcome Welcomer
    Log     zerolog.Logger
}

func NewSubscriberHandler(store SubscriberStore, w Welcomer, log zerolog.Logger) *SubscriberHandler {
    return &SubscriberHandler{Store: store, Welcome: w, Log: log}
}

type notificationReq struct {
    FirstName   string                        `json:"firstName"`
    LastName    string                        `json:"lastName"`
    Email       string                        `json:"email"`
    Phone       *string                       `json:"phone"`
    Preferences model.NotificationPreferences `json:"preferences"`
}

func (r *notificationReq) validate() string {
    r.FirstName = strings.TrimSpace(r.FirstName)
    r.LastName = strings.TrimSpace(r.LastName)
    r.Email = strings.TrimSpace(r.Email)
    r.Phone = optionalText(r.Phone)
    p := r.Preferences
    switch {
    case r.FirstName == "" || r.LastName == "" || r.Email == "":
        return "First name, last name, and email are required"
    case !utils.IsEmail(r.Email):
        return "Invalid email address"
    case !p.NotifyEmail && !p.NotifySMS:
        return "Please select at least one notification method"
    case p.NotifySMS && r.Phone == nil:
        return "Phone number is required for SMS notifications"
    case !p.TypeLivestream && !p.TypeEvents && !p.TypeAnnouncements:
        return "Please select at least one type of notification"
    }
    return ""
}

// NotificationSignup handles POST /api/notifications/signup.
func (h *SubscriberHandler) NotificationSignup(c echo.Context) error {
    var req notificationReq
    if err := c.Bind(&req); err != nil {
        return middleware.Fail(c, http.StatusBadRequest, "invalid request body")
    }
    if msg := req.validate(); msg != "" {
        return middleware.Fail(c, http.StatusBadRequest, msg)
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    exists, err := h.Store.HasActiveNotification(ctx, req.Email)
    if err != nil {
        h.Log.Error().Err(err).Msg("notification signup: lookup")
        return middleware.Fail(c, http.StatusInternalServerError, "An error occurred while processing your signup")
    }
    if exists {
        return middleware.Fail(c, http.StatusBadRequest, "This email is already registered for notifications")
    }

    n := model.NotificationSignup{
        FirstName:   req.FirstName,
        LastName:    req.LastName,
        Email:       req.Email,
        Phone:       req.Phone,
        Preferences: req.Preferences,
    }
    if err := h.Store.CreateNotification(ctx, &n); err != nil {
        h.Log.Error().Err(err).Msg("notification signup: insert")
        return middleware.Fail(c, http.StatusInternalServerError, "An error occurred while processing your signup")
    }

    h.Welcome.Async(c.Request().Context(), func(ctx context.Context) {
        h.Welcome.NotifyWelcome(ctx, n)
    })

    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "message": "Successfully signed up for notifications!",
        "id":      n.ID,
    })
}

// ListNotifications handles GET /api/notifications (admin).
func (h *SubscriberHandler) ListNotifications(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()

    signups, err := h.Store.ListNotifications(ctx)
    if err != nil {
        h.Log.Error().Err(err).Msg("list notification signups")
        return middleware.Fail(c, http.StatusInternalServerError, "Error fetching signups")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(signups), "signups": signups})
}

// Unsubscribe handles DELETE /api/notifications/:email (admin).
func (h *SubscriberHandler) Unsubscribe(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()

    err := h.Store.DeactivateNotification(ctx, c.Param("email"))
    if errors.Is(err, repository.ErrNotFound) {
        return middleware.Fail(c, http.StatusNotFound, "Email not found")
    }
    if err != nil {
        h.Log.Error().Err(err).Msg("notification unsubscribe")
        return middleware.Fail(c, http.StatusInternalServerError, "Error processing unsubscribe")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Successfully unsubscribed"})
}

type newsletterReq struct {
    Name  string `json:"name"`
    Email string `json:"email"`
}

// NewsletterSignup handles POST /api/newsletter/signup.
func (h *SubscriberHandler) NewsletterSignup(c echo.Context) error {
    var req newsletterReq
    if err := c.Bind(&req); err != nil {
        return middleware.Fail(c, http.StatusBadRequest, "invalid request body")
    }
    req.Name = strings.TrimSpace(req.Name)
    req.Email = strings.TrimSpace(req.Email)
    if req.Name == "" || req.Email == "" {
        return middleware.Fail(c, http.StatusBadRequest, "Name and email are required")
    }
    if !utils.IsEmail(req.Email) {
        return middleware.Fail(c, http.StatusBadRequest, "Invalid email address")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    exists, err := h.Store.HasActiveNewsletter(ctx, req.Email)
    if err != nil {
        h.Log.Error().Err(err).Msg("newsletter signup: lookup")
        return middleware.Fail(c, http.StatusInternalServerError, "An error occurred while processing your signup")
    }
    if exists {
        return middleware.Fail(c, http.StatusBadRequest, "This email is already subscribed to the newsletter")
    }

    sub := model.NewsletterSubscriber{Name: req.Name, Email: req.Email}
    if err := h.Store.CreateNewsletter(ctx, &sub); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return middleware.Fail(c, http.StatusBadRequest, "This email is already subscribed to the newsletter")
        }
        h.Log.Error().Err(err).Msg("newsletter signup: insert")
        return middleware.Fail(c, http.StatusInternalServerError, "An error occurred while processing your signup")
    }

    h.Welcome.Async(c.Request().Context(), func(ctx context.Context) {
        h.Welcome.NotifyNewsletterWelcome(ctx, sub)
    })

    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "message": "Successfully subscribed to newsletter!",
        "id":      sub.ID,
    })
}

// ListNewsletter handles GET /api/newsletter (admin).
func (h *SubscriberHandler) ListNewsletter(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()

    subs, err := h.Store.ListNewsletter(ctx)
    if err != nil {
        h.Log.Error().Err(err).Msg("list newsletter subscribers")
        return middleware.Fail(c, http.StatusInternalServerError, "Error fetching subscribers")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(subs), "subscribers": subs})
}

// NewsletterUnsubscribe handles DELETE /api/newsletter/:email (admin).
func (h *SubscriberHandler) NewsletterUnsubscribe(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()

    err := h.Store.DeactivateNewsletter(ctx, c.Param("email"))
    if errors.Is(err, repository.ErrNotFound) {
        return middleware.Fail(c, http.StatusNotFound, "Email not found")
    }
    if err != nil {
        h.Log.Error().Err(err).Msg("newsletter unsubscribe")
        return middleware.Fail(c, http.StatusInternalServerError, "Error processing unsubscribe")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Successfully unsubscribed"})
}
