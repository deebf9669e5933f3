package handler

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "strconv"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/sunapee-sound/community-backend/internal/config"
    "github.com/sunapee-sound/community-backend/internal/database"
    "github.com/sunapee-sound/community-backend/internal/middleware"
    "github.com/sunapee-sound/community-backend/internal/model"
    "github.com/sunapee-sound/community-backend/internal/repository"
    "github.com/sunapee-sound/community-backend/internal/service"
)

// ----- shared helpers -----

func newTestDB(t *testing.T) *sql.DB {
    t.Helper()
    db, err := database.Open(database.Options{Driver: database.DriverSQLite, Path: ":memory:"})
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite))
    return db
}

func newEcho() *echo.Echo {
    e := echo.New()
    e.HTTPErrorHandler = middleware.ErrorHandler(zerolog.Nop())
    return e
}

func call(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
    var req *http.Request
    if body != "" {
        req = httptest.NewRequest(method, path, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    } else {
        req = httptest.NewRequest(method, path, nil)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
    t.Helper()
    var out map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
    return out
}

// ----- open mic -----

type mockOpenMic struct {
    submitFn   func(ctx context.Context, req service.SignupRequest) (service.SignupResult, error)
    cancelFn   func(ctx context.Context, id uint64) error
    forDateFn  func(ctx context.Context, date string) (model.DateSchedule, error)
    upcomingFn func(ctx context.Context, today string) (map[string]model.DateSchedule, error)
}

func (m *mockOpenMic) SubmitSignup(ctx context.Context, req service.SignupRequest) (service.SignupResult, error) {
    return m.submitFn(ctx, req)
}
func (m *mockOpenMic) CancelSignup(ctx context.Context, id uint64) error { return m.cancelFn(ctx, id) }
func (m *mockOpenMic) ScheduleForDate(ctx context.Context, date string) (model.DateSchedule, error) {
    return m.forDateFn(ctx, date)
}
func (m *mockOpenMic) UpcomingSchedule(ctx context.Context, today string) (map[string]model.DateSchedule, error) {
    return m.upcomingFn(ctx, today)
}

func openMicServer(svc service.OpenMicService) *echo.Echo {
    h := NewOpenMicHandler(svc, zerolog.Nop())
    h.Now = func() time.Time { return time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC) }
    e := newEcho()
    e.POST("/api/openmic/signup", h.Signup)
    e.GET("/api/openmic/schedule", h.Upcoming)
    e.GET("/api/openmic/schedule/:date", h.ScheduleByDate)
    e.DELETE("/api/openmic/:id", h.Cancel)
    return e
}

func TestOpenMicSignup_Success(t *testing.T) {
    var got service.SignupRequest
    e := openMicServer(&mockOpenMic{submitFn: func(_ context.Context, req service.SignupRequest) (service.SignupResult, error) {
        got = req
        return service.SignupResult{ID: 42, IsReserve: req.IsReserve}, nil
    }})

    rec := call(e, http.MethodPost, "/api/openmic/signup",
        `{"performerName":"Ann","email":"ann@x.com","timeSlot":"8:00pm","signupDate":"2025-06-01"}`)
    assert.Equal(t, http.StatusOK, rec.Code)
    body := decode(t, rec)
    assert.Equal(t, true, body["success"])
    assert.Equal(t, "Successfully signed up for open mic!", body["message"])
    assert.EqualValues(t, 42, body["id"])
    assert.Equal(t, false, body["isReserve"])
    assert.Equal(t, "8:00pm", got.TimeSlot)

    rec = call(e, http.MethodPost, "/api/openmic/signup",
        `{"performerName":"Ann","email":"ann@x.com","isReserve":true,"signupDate":"2025-06-02"}`)
    assert.Equal(t, "Added to reserve list!", decode(t, rec)["message"])
}

func TestOpenMicSignup_ErrorMapping(t *testing.T) {
    cases := []struct {
        name   string
        err    error
        status int
        msg    string
    }{
        {"validation", &service.ValidationError{Msg: service.MsgMissingFields}, http.StatusBadRequest, service.MsgMissingFields},
        {"conflict", &service.ConflictError{Msg: service.MsgAlreadySignedUp}, http.StatusBadRequest, service.MsgAlreadySignedUp},
        {"dependency", &service.DependencyError{Op: "insert", Err: errors.New("disk full")}, http.StatusInternalServerError,
            "An error occurred while processing your signup"},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            e := openMicServer(&mockOpenMic{submitFn: func(context.Context, service.SignupRequest) (service.SignupResult, error) {
                return service.SignupResult{}, tc.err
            }})
            rec := call(e, http.MethodPost, "/api/openmic/signup", `{"performerName":"Ann"}`)
            assert.Equal(t, tc.status, rec.Code)
            body := decode(t, rec)
            assert.Equal(t, false, body["success"])
            assert.Equal(t, tc.msg, body["error"])
            assert.NotContains(t, rec.Body.String(), "disk full")
        })
    }
}

func TestOpenMicSignup_BadBody(t *testing.T) {
    e := openMicServer(&mockOpenMic{})
    rec := call(e, http.MethodPost, "/api/openmic/signup", `{"performerName":`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpenMicScheduleByDate(t *testing.T) {
    slot := "8:00pm"
    e := openMicServer(&mockOpenMic{forDateFn: func(_ context.Context, date string) (model.DateSchedule, error) {
        assert.Equal(t, "2025-06-01", date)
        return model.DateSchedule{
            Regular: []model.Signup{{ID: 1, PerformerName: "Ann", TimeSlot: &slot}},
            Reserve: []model.Signup{},
        }, nil
    }})
    rec := call(e, http.MethodGet, "/api/openmic/schedule/2025-06-01", "")
    require.Equal(t, http.StatusOK, rec.Code)
    body := decode(t, rec)
    assert.Equal(t, "2025-06-01", body["date"])
    assert.Len(t, body["signups"], 1)
    assert.NotNil(t, body["reserveList"])
    assert.Len(t, body["reserveList"], 0)
}

func TestOpenMicUpcoming_UsesUTCToday(t *testing.T) {
    e := openMicServer(&mockOpenMic{upcomingFn: func(_ context.Context, today string) (map[string]model.DateSchedule, error) {
        assert.Equal(t, "2025-06-01", today)
        return map[string]model.DateSchedule{
            "2025-06-01": {Regular: []model.Signup{{ID: 1}}, Reserve: []model.Signup{}},
        }, nil
    }})
    rec := call(e, http.MethodGet, "/api/openmic/schedule", "")
    require.Equal(t, http.StatusOK, rec.Code)
    sched := decode(t, rec)["schedule"].(map[string]interface{})
    day := sched["2025-06-01"].(map[string]interface{})
    assert.Len(t, day["regular"], 1)
    assert.Len(t, day["reserve"], 0)
}

func TestOpenMicCancel(t *testing.T) {
    e := openMicServer(&mockOpenMic{cancelFn: func(_ context.Context, id uint64) error {
        if id == 7 {
            return nil
        }
        return &service.NotFoundError{Msg: service.MsgSignupNotFound}
    }})

    rec := call(e, http.MethodDelete, "/api/openmic/7", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "Signup cancelled", decode(t, rec)["message"])

    rec = call(e, http.MethodDelete, "/api/openmic/8", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, service.MsgSignupNotFound, decode(t, rec)["error"])

    for _, path := range []string{"/api/openmic/abc", "/api/openmic/0"} {
        rec = call(e, http.MethodDelete, path, "")
        assert.Equal(t, http.StatusNotFound, rec.Code, path)
        assert.Equal(t, service.MsgSignupNotFound, decode(t, rec)["error"], path)
    }
}

// ----- auth -----

func authServer(t *testing.T) (*echo.Echo, *repository.UserRepo) {
    users := repository.NewUserRepo(newTestDB(t))
    cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 5, BcryptCost: 4}
    h := NewAuthHandler(cfg, users, zerolog.Nop())
    e := newEcho()
    e.POST("/api/auth/register", h.Register)
    e.POST("/api/auth/login", h.Login)
    e.GET("/api/auth/verify", h.Verify, middleware.JWTAuth(cfg.JWTSecret, users))
    return e, users
}

func TestAuth_RegisterLoginVerify(t *testing.T) {
    e, _ := authServer(t)

    rec := call(e, http.MethodPost, "/api/auth/register",
        `{"username":"host","email":"Host@X.com","password":"secret1"}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    body := decode(t, rec)
    assert.NotEmpty(t, body["token"])
    user := body["user"].(map[string]interface{})
    assert.Equal(t, "host@x.com", user["email"])
    assert.Equal(t, model.RoleUser, user["role"])

    rec = call(e, http.MethodPost, "/api/auth/register",
        `{"username":"host","email":"other@x.com","password":"secret1"}`)
    assert.Equal(t, http.StatusConflict, rec.Code)

    rec = call(e, http.MethodPost, "/api/auth/login", `{"email":"host@x.com","password":"wrong-pass"}`)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Equal(t, "Invalid email or password", decode(t, rec)["error"])

    rec = call(e, http.MethodPost, "/api/auth/login", `{"email":"host@x.com","password":"secret1"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    tok := decode(t, rec)["token"].(string)

    req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
    req.Header.Set("Authorization", "Bearer "+tok)
    vrec := httptest.NewRecorder()
    e.ServeHTTP(vrec, req)
    require.Equal(t, http.StatusOK, vrec.Code)
    assert.Equal(t, "host", decode(t, vrec)["user"].(map[string]interface{})["username"])

    rec = call(e, http.MethodGet, "/api/auth/verify", "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RegisterValidation(t *testing.T) {
    e, _ := authServer(t)
    cases := map[string]string{
        `{"username":"a","email":"a@x.com"}`:                   "Username, email, and password are required",
        `{"username":"a","email":"a@x.com","password":"123"}`:  "Password must be at least 6 characters long",
        `{"username":"a","email":"nope","password":"123456"}`: "Invalid email address",
    }
    for body, msg := range cases {
        rec := call(e, http.MethodPost, "/api/auth/register", body)
        assert.Equal(t, http.StatusBadRequest, rec.Code, body)
        assert.Equal(t, msg, decode(t, rec)["error"], body)
    }
}

// ----- events -----

func eventServer(t *testing.T) *echo.Echo {
    h := NewEventHandler(repository.NewEventRepo(newTestDB(t)), zerolog.Nop())
    h.Now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
    e := newEcho()
    e.GET("/api/events", h.List)
    e.GET("/api/events/:id", h.Get)
    e.POST("/api/events", h.Create)
    e.PUT("/api/events/:id", h.Update)
    e.DELETE("/api/events/:id", h.Delete)
    return e
}

func TestEvents_CRUD(t *testing.T) {
    e := eventServer(t)

    rec := call(e, http.MethodPost, "/api/events", `{"title":"Old Jam","date":"2025-05-01"}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    rec = call(e, http.MethodPost, "/api/events", `{"title":"Summer Jam","date":"2025-06-10","venue":"Town Hall"}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    body := decode(t, rec)
    assert.Equal(t, "Event created successfully", body["message"])
    id := int(body["id"].(float64))

    rec = call(e, http.MethodGet, "/api/events", "")
    assert.EqualValues(t, 2, decode(t, rec)["count"])

    rec = call(e, http.MethodGet, "/api/events?upcoming=true", "")
    body = decode(t, rec)
    assert.EqualValues(t, 1, body["count"])
    ev := body["events"].([]interface{})[0].(map[string]interface{})
    assert.Equal(t, "Summer Jam", ev["title"])
    assert.Equal(t, "sunapee_sound", ev["source"])

    path := "/api/events/" + itoa(id)
    rec = call(e, http.MethodPut, path, `{"title":"Summer Jam II","date":"2025-06-11"}`)
    assert.Equal(t, http.StatusOK, rec.Code)
    rec = call(e, http.MethodGet, path, "")
    assert.Equal(t, "Summer Jam II", decode(t, rec)["event"].(map[string]interface{})["title"])

    rec = call(e, http.MethodDelete, path, "")
    assert.Equal(t, http.StatusOK, rec.Code)
    rec = call(e, http.MethodGet, path, "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, "Event not found", decode(t, rec)["error"])
    rec = call(e, http.MethodDelete, path, "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvents_Validation(t *testing.T) {
    e := eventServer(t)
    rec := call(e, http.MethodPost, "/api/events", `{"title":"No date"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "Title and date are required", decode(t, rec)["error"])

    rec = call(e, http.MethodGet, "/api/events?limit=abc", "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = call(e, http.MethodPut, "/api/events/99", `{"title":"x","date":"2025-01-01"}`)
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ----- notifications and newsletter -----

type syncWelcomer struct {
    mu         sync.Mutex
    welcomed   []model.NotificationSignup
    newsletter []model.NewsletterSubscriber
}

func (w *syncWelcomer) Async(ctx context.Context, fn func(ctx context.Context)) { fn(ctx) }
func (w *syncWelcomer) NotifyWelcome(_ context.Context, n model.NotificationSignup) map[model.Channel]model.Outcome {
    w.mu.Lock()
    defer w.mu.Unlock()
    w.welcomed = append(w.welcomed, n)
    return nil
}
func (w *syncWelcomer) NotifyNewsletterWelcome(_ context.Context, s model.NewsletterSubscriber) model.Outcome {
    w.mu.Lock()
    defer w.mu.Unlock()
    w.newsletter = append(w.newsletter, s)
    return model.OutcomeDisabled
}

func subscriberServer(t *testing.T) (*echo.Echo, *syncWelcomer) {
    w := &syncWelcomer{}
    h := NewSubscriberHandler(repository.NewSubscriberRepo(newTestDB(t)), w, zerolog.Nop())
    e := newEcho()
    e.POST("/api/notifications/signup", h.NotificationSignup)
    e.GET("/api/notifications", h.ListNotifications)
    e.DELETE("/api/notifications/:email", h.Unsubscribe)
    e.POST("/api/newsletter/signup", h.NewsletterSignup)
    e.GET("/api/newsletter", h.ListNewsletter)
    e.DELETE("/api/newsletter/:email", h.NewsletterUnsubscribe)
    return e, w
}

func TestNotificationSignup_ValidationOrder(t *testing.T) {
    e, w := subscriberServer(t)
    cases := []struct{ body, msg string }{
        {`{"firstName":"Ann","email":"ann@x.com"}`, "First name, last name, and email are required"},
        {`{"firstName":"Ann","lastName":"Lee","email":"bad"}`, "Invalid email address"},
        {`{"firstName":"Ann","lastName":"Lee","email":"ann@x.com","preferences":{}}`,
            "Please select at least one notification method"},
        {`{"firstName":"Ann","lastName":"Lee","email":"ann@x.com","preferences":{"notifySMS":true}}`,
            "Phone number is required for SMS notifications"},
        {`{"firstName":"Ann","lastName":"Lee","email":"ann@x.com","preferences":{"notifyEmail":true}}`,
            "Please select at least one type of notification"},
    }
    for _, tc := range cases {
        rec := call(e, http.MethodPost, "/api/notifications/signup", tc.body)
        assert.Equal(t, http.StatusBadRequest, rec.Code, tc.body)
        assert.Equal(t, tc.msg, decode(t, rec)["error"], tc.body)
    }
    assert.Empty(t, w.welcomed)
}

func TestNotificationSignup_Lifecycle(t *testing.T) {
    e, w := subscriberServer(t)
    body := `{"firstName":"Ann","lastName":"Lee","email":"ann@x.com","phone":"5551234567",
        "preferences":{"notifyEmail":true,"notifySMS":true,"typeEvents":true,"timing":"day"}}`

    rec := call(e, http.MethodPost, "/api/notifications/signup", body)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "Successfully signed up for notifications!", decode(t, rec)["message"])
    require.Len(t, w.welcomed, 1)
    assert.Equal(t, "day", w.welcomed[0].Preferences.Timing)

    rec = call(e, http.MethodPost, "/api/notifications/signup", body)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "This email is already registered for notifications", decode(t, rec)["error"])

    rec = call(e, http.MethodGet, "/api/notifications", "")
    assert.EqualValues(t, 1, decode(t, rec)["count"])

    rec = call(e, http.MethodDelete, "/api/notifications/ann@x.com", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    rec = call(e, http.MethodDelete, "/api/notifications/ann@x.com", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, "Email not found", decode(t, rec)["error"])
}

func TestNewsletterSignup(t *testing.T) {
    e, w := subscriberServer(t)

    rec := call(e, http.MethodPost, "/api/newsletter/signup", `{"email":"bo@x.com"}`)
    assert.Equal(t, "Name and email are required", decode(t, rec)["error"])
    rec = call(e, http.MethodPost, "/api/newsletter/signup", `{"name":"Bo","email":"bo@"}`)
    assert.Equal(t, "Invalid email address", decode(t, rec)["error"])

    rec = call(e, http.MethodPost, "/api/newsletter/signup", `{"name":"Bo","email":"bo@x.com"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "Successfully subscribed to newsletter!", decode(t, rec)["message"])
    require.Len(t, w.newsletter, 1)

    rec = call(e, http.MethodPost, "/api/newsletter/signup", `{"name":"Bo","email":"bo@x.com"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "This email is already subscribed to the newsletter", decode(t, rec)["error"])

    rec = call(e, http.MethodGet, "/api/newsletter", "")
    assert.EqualValues(t, 1, decode(t, rec)["count"])

    rec = call(e, http.MethodDelete, "/api/newsletter/bo@x.com", "")
    assert.Equal(t, http.StatusOK, rec.Code)
}

// ----- videos -----

func videoServer(t *testing.T) *echo.Echo {
    h := NewVideoHandler(repository.NewVideoRepo(newTestDB(t)), zerolog.Nop())
    e := newEcho()
    e.GET("/api/videos", h.List)
    e.GET("/api/videos/:id", h.Get)
    e.POST("/api/videos", h.Create)
    e.PUT("/api/videos/:id", h.Update)
    e.DELETE("/api/videos/:id", h.Delete)
    return e
}

func TestVideos_CRUD(t *testing.T) {
    e := videoServer(t)

    rec := call(e, http.MethodPost, "/api/videos", `{"title":"Set"}`)
    assert.Equal(t, "Title and YouTube URL are required", decode(t, rec)["error"])
    rec = call(e, http.MethodPost, "/api/videos", `{"title":"Set","youtube_url":"https://vimeo.com/1"}`)
    assert.Equal(t, "Invalid YouTube URL", decode(t, rec)["error"])

    rec = call(e, http.MethodPost, "/api/videos",
        `{"title":"Set","youtube_url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    body := decode(t, rec)
    assert.Equal(t, "Video added successfully", body["message"])
    path := "/api/videos/" + itoa(int(body["videoId"].(float64)))

    rec = call(e, http.MethodGet, path, "")
    v := decode(t, rec)["video"].(map[string]interface{})
    assert.Equal(t, "dQw4w9WgXcQ", v["video_id"])
    assert.Equal(t, "general", v["category"])

    rec = call(e, http.MethodPut, path, `{"youtube_url":"https://youtu.be/abcdefghijk","display_order":3}`)
    require.Equal(t, http.StatusOK, rec.Code)
    rec = call(e, http.MethodGet, path, "")
    v = decode(t, rec)["video"].(map[string]interface{})
    assert.Equal(t, "abcdefghijk", v["video_id"])
    assert.Equal(t, "Set", v["title"])
    assert.EqualValues(t, 3, v["display_order"])

    rec = call(e, http.MethodPut, path, `{"youtube_url":"not a url"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = call(e, http.MethodDelete, path, "")
    assert.Equal(t, http.StatusOK, rec.Code)
    rec = call(e, http.MethodGet, path, "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    rec = call(e, http.MethodPut, "/api/videos/999", `{"title":"x"}`)
    assert.Equal(t, http.StatusNotFound, rec.Code)

    rec = call(e, http.MethodGet, "/api/videos", "")
    assert.Len(t, decode(t, rec)["videos"], 0)
}

// ----- service info -----

func TestHealthAndIndex(t *testing.T) {
    e := newEcho()
    e.GET("/", Index)
    e.GET("/health", Health)

    rec := call(e, http.MethodGet, "/health", "")
    require.Equal(t, http.StatusOK, rec.Code)
    body := decode(t, rec)
    assert.Equal(t, "healthy", body["status"])
    assert.Contains(t, body, "uptime")

    rec = call(e, http.MethodGet, "/", "")
    assert.Equal(t, Version, decode(t, rec)["version"])

    rec = call(e, http.MethodGet, "/nope", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, "Endpoint not found", decode(t, rec)["error"])
}

func itoa(n int) string { return strconv.Itoa(n) }
