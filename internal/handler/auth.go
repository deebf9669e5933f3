package handler

import (
    "database/sql"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/sunapee-sound/community-backend/internal/config"
    "github.com/sunapee-sound/community-backend/internal/middleware"
    "github.com/sunapee-sound/community-backend/internal/model"
    "github.com/sunapee-sound/community-backend/internal/repository"
    "github.com/sunapee-sound/community-backend/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg   config.Config
    Users *repository.UserRepo
    Log   zerolog.Logger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, log zerolog.Logger) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Log: log}
}

// ----- DTOs -----

type registerReq struct {
    Username string `json:"username"`
    Email    string `json:"email"`
    Password string `json:"password"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type userPart struct {
    ID       uint64 `json:"id"`
    Username string `json:"username"`
    Email    string `json:"email"`
    Role     string `json:"role"`
}

// Register: create a user (role "user") and return a token immediately.
// Admins are promoted out of band with the promote-admin command.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return middleware.Fail(c, http.StatusBadRequest, "invalid request body")
    }
    req.Username = strings.TrimSpace(req.Username)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Username == "" || req.Email == "" || req.Password == "" {
        return middleware.Fail(c, http.StatusBadRequest, "Username, email, and password are required")
    }
    if len(req.Password) < utils.MinPasswordLength {
        return middleware.Fail(c, http.StatusBadRequest, "Password must be at least 6 characters long")
    }
    if !utils.IsEmail(req.Email) {
        return middleware.Fail(c, http.StatusBadRequest, "Invalid email address")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    taken, err := h.Users.ExistsByEmailOrUsername(ctx, req.Email, req.Username)
    if err != nil {
        h.Log.Error().Err(err).Msg("register: lookup failed")
        return middleware.Fail(c, http.StatusInternalServerError, "Registration failed")
    }
    if taken {
        return middleware.Fail(c, http.StatusConflict, repository.ErrUserExists.Error())
    }

    uid, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, model.RoleUser, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrUserExists) {
            return middleware.Fail(c, http.StatusConflict, err.Error())
        }
        h.Log.Error().Err(err).Msg("register: create user failed")
        return middleware.Fail(c, http.StatusInternalServerError, "Registration failed")
    }

    user := userPart{ID: uid, Username: req.Username, Email: req.Email, Role: model.RoleUser}
    access, err := h.issue(user)
    if err != nil {
        return middleware.Fail(c, http.StatusInternalServerError, "Registration failed")
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "success": true,
        "message": "User registered successfully",
        "token":   access.Token,
        "expires": access.Exp,
        "user":    user,
    })
}

// Login: verify credentials of an active user and return a token.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return middleware.Fail(c, http.StatusBadRequest, "invalid request body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return middleware.Fail(c, http.StatusBadRequest, "Email and password are required")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    u, err := h.Users.GetActiveByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return middleware.Fail(c, http.StatusUnauthorized, "Invalid email or password")
        }
        h.Log.Error().Err(err).Msg("login: query failed")
        return middleware.Fail(c, http.StatusInternalServerError, "Login failed")
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return middleware.Fail(c, http.StatusUnauthorized, "Invalid email or password")
    }

    user := userPart{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
    access, err := h.issue(user)
    if err != nil {
        return middleware.Fail(c, http.StatusInternalServerError, "Login failed")
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "message": "Login successful",
        "token":   access.Token,
        "expires": access.Exp,
        "user":    user,
    })
}

// Verify: protected by JWTAuth; echoes the current user.
func (h *AuthHandler) Verify(c echo.Context) error {
    cl, ok := middleware.CurrentClaims(c)
    if !ok {
        return middleware.Fail(c, http.StatusUnauthorized, "Invalid token")
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "user":    userPart{ID: cl.UserID, Username: cl.Username, Email: cl.Email, Role: cl.Role},
    })
}

func (h *AuthHandler) issue(u userPart) (utils.AccessToken, error) {
    return utils.NewAccessToken(h.Cfg.JWTSecret, utils.Claims{
        UserID:   u.ID,
        Username: u.Username,
        Email:    u.Email,
        Role:     u.Role,
    }, h.Cfg.AccessTTLMin)
}
