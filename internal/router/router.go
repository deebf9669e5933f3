package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                      // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // stock Echo middleware (recover, CORS, secure headers)
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sunapee-sound/community-backend/internal/config"
	"github.com/sunapee-sound/community-backend/internal/handler"
	"github.com/sunapee-sound/community-backend/internal/middleware"
	"github.com/sunapee-sound/community-backend/internal/model"
)

// Deps carries everything the router needs to mount the API.  Redis may
// be nil, in which case rate limiting and caching pass through.
type Deps struct {
	Cfg         config.Config
	RateLimit   config.RateLimitConfig
	SignupLimit config.RateLimitConfig
	Cache       config.CacheConfig
	Redis       *redis.Client
	Users       middleware.ActiveUserFinder
	Log         zerolog.Logger

	Auth        *handler.AuthHandler
	OpenMic     *handler.OpenMicHandler
	Events      *handler.EventHandler
	Subscribers *handler.SubscriberHandler
	Videos      *handler.VideoHandler
}

// New builds the Echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(d.Log)

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{d.Cfg.CORSOrigin},
		AllowCredentials: d.Cfg.CORSOrigin != "*",
	}))
	e.Use(echomw.BodyLimit("1M"))

	RegisterRoutes(e)

	api := e.Group("/api")
	api.Use(middleware.NewTokenBucket(d.RateLimit, d.Redis,
		"Too many requests from this IP, please try again later.", d.Log))
	api.Use(middleware.BustOnWrite(middleware.NewCacheBuster(d.Cache, d.Redis)))

	cache := middleware.NewRedisCache(d.Cache, d.Redis)
	signupLimit := middleware.NewTokenBucket(d.SignupLimit, d.Redis,
		"Too many signup attempts, please try again later.", d.Log)
	admin := []echo.MiddlewareFunc{
		middleware.JWTAuth(d.Cfg.JWTSecret, d.Users),
		middleware.RequireRole(model.RoleAdmin),
	}

	RegisterAuth(api, d.Auth, d.Cfg.JWTSecret, d.Users)
	RegisterOpenMic(api, d.OpenMic, signupLimit, cache)
	RegisterEvents(api, d.Events, cache, admin)
	RegisterSubscribers(api, d.Subscribers, signupLimit, admin)
	RegisterVideos(api, d.Videos, cache, admin)
	return e
}

// RegisterRoutes registers the unauthenticated service endpoints: the API
// index and the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Index)
	e.GET("/health", handler.Health)
}

// RegisterAuth mounts /api/auth.  Register and login are public; verify
// requires a valid access token.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, jwtSecret string, users middleware.ActiveUserFinder) {
	g := api.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/verify", a.Verify, middleware.JWTAuth(jwtSecret, users))
}

// RegisterOpenMic mounts /api/openmic.  All routes are public; the signup
// POST carries the stricter signup limiter and schedule reads are cached.
func RegisterOpenMic(api *echo.Group, h *handler.OpenMicHandler, signupLimit, cache echo.MiddlewareFunc) {
	g := api.Group("/openmic")
	g.POST("/signup", h.Signup, signupLimit)
	g.GET("/schedule", h.Upcoming, cache)
	g.GET("/schedule/:date", h.ScheduleByDate, cache)
	g.DELETE("/:id", h.Cancel)
}

// RegisterEvents mounts /api/events: public reads, admin writes.
func RegisterEvents(api *echo.Group, h *handler.EventHandler, cache echo.MiddlewareFunc, admin []echo.MiddlewareFunc) {
	g := api.Group("/events")
	g.GET("", h.List, cache)
	g.GET("/:id", h.Get, cache)
	g.POST("", h.Create, admin...)
	g.PUT("/:id", h.Update, admin...)
	g.DELETE("/:id", h.Delete, admin...)
}

// RegisterSubscribers mounts /api/notifications and /api/newsletter.
// Signing up is public; listing and unsubscribing are admin only.
func RegisterSubscribers(api *echo.Group, h *handler.SubscriberHandler, signupLimit echo.MiddlewareFunc, admin []echo.MiddlewareFunc) {
	n := api.Group("/notifications")
	n.POST("/signup", h.NotificationSignup, signupLimit)
	n.GET("", h.ListNotifications, admin...)
	n.DELETE("/:email", h.Unsubscribe, admin...)

	nl := api.Group("/newsletter")
	nl.POST("/signup", h.NewsletterSignup, signupLimit)
	nl.GET("", h.ListNewsletter, admin...)
	nl.DELETE("/:email", h.NewsletterUnsubscribe, admin...)
}

// RegisterVideos mounts /api/videos: public reads, admin writes.
func RegisterVideos(api *echo.Group, h *handler.VideoHandler, cache echo.MiddlewareFunc, admin []echo.MiddlewareFunc) {
	g := api.Group("/videos")
	g.GET("", h.List, cache)
	g.GET("/:id", h.Get, cache)
	g.POST("", h.Create, admin...)
	g.PUT("/:id", h.Update, admin...)
	g.DELETE("/:id", h.Delete, admin...)
}
